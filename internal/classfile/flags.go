package classfile

import "strings"

// Class access and property flags from Table 4.1-B of the class file format.
type ClassAccessFlags uint16

const (
	ClassAccPublic     ClassAccessFlags = 0x0001
	ClassAccFinal      ClassAccessFlags = 0x0010
	ClassAccSuper      ClassAccessFlags = 0x0020
	ClassAccInterface  ClassAccessFlags = 0x0200
	ClassAccAbstract   ClassAccessFlags = 0x0400
	ClassAccSynthetic  ClassAccessFlags = 0x1000
	ClassAccAnnotation ClassAccessFlags = 0x2000
	ClassAccEnum       ClassAccessFlags = 0x4000
	ClassAccModule     ClassAccessFlags = 0x8000
)

// Field access and property flags from Table 4.5-A.
type FieldAccessFlags uint16

const (
	FieldAccPublic    FieldAccessFlags = 0x0001
	FieldAccPrivate   FieldAccessFlags = 0x0002
	FieldAccProtected FieldAccessFlags = 0x0004
	FieldAccStatic    FieldAccessFlags = 0x0008
	FieldAccFinal     FieldAccessFlags = 0x0010
	FieldAccVolatile  FieldAccessFlags = 0x0040
	FieldAccTransient FieldAccessFlags = 0x0080
	FieldAccSynthetic FieldAccessFlags = 0x1000
	FieldAccEnum      FieldAccessFlags = 0x4000
)

// Method access and property flags from Table 4.6-A.
type MethodAccessFlags uint16

const (
	MethodAccPublic       MethodAccessFlags = 0x0001
	MethodAccPrivate      MethodAccessFlags = 0x0002
	MethodAccProtected    MethodAccessFlags = 0x0004
	MethodAccStatic       MethodAccessFlags = 0x0008
	MethodAccFinal        MethodAccessFlags = 0x0010
	MethodAccSynchronized MethodAccessFlags = 0x0020
	MethodAccBridge       MethodAccessFlags = 0x0040
	MethodAccVarargs      MethodAccessFlags = 0x0080
	MethodAccNative       MethodAccessFlags = 0x0100
	MethodAccAbstract     MethodAccessFlags = 0x0400
	MethodAccStrict       MethodAccessFlags = 0x0800
	MethodAccSynthetic    MethodAccessFlags = 0x1000
)

type flagName struct {
	mask    uint16
	name    string // ACC_* form used in flag listings
	keyword string // Java source keyword, empty when the flag has none
}

var classFlagNames = []flagName{
	{0x0001, "ACC_PUBLIC", "public"},
	{0x0010, "ACC_FINAL", "final"},
	{0x0020, "ACC_SUPER", ""},
	{0x0200, "ACC_INTERFACE", "interface"},
	{0x0400, "ACC_ABSTRACT", "abstract"},
	{0x1000, "ACC_SYNTHETIC", ""},
	{0x2000, "ACC_ANNOTATION", ""},
	{0x4000, "ACC_ENUM", ""},
	{0x8000, "ACC_MODULE", ""},
}

var fieldFlagNames = []flagName{
	{0x0001, "ACC_PUBLIC", "public"},
	{0x0002, "ACC_PRIVATE", "private"},
	{0x0004, "ACC_PROTECTED", "protected"},
	{0x0008, "ACC_STATIC", "static"},
	{0x0010, "ACC_FINAL", "final"},
	{0x0040, "ACC_VOLATILE", "volatile"},
	{0x0080, "ACC_TRANSIENT", "transient"},
	{0x1000, "ACC_SYNTHETIC", ""},
	{0x4000, "ACC_ENUM", ""},
}

var methodFlagNames = []flagName{
	{0x0001, "ACC_PUBLIC", "public"},
	{0x0002, "ACC_PRIVATE", "private"},
	{0x0004, "ACC_PROTECTED", "protected"},
	{0x0008, "ACC_STATIC", "static"},
	{0x0010, "ACC_FINAL", "final"},
	{0x0020, "ACC_SYNCHRONIZED", "synchronized"},
	{0x0040, "ACC_BRIDGE", ""},
	{0x0080, "ACC_VARARGS", ""},
	{0x0100, "ACC_NATIVE", "native"},
	{0x0400, "ACC_ABSTRACT", "abstract"},
	{0x0800, "ACC_STRICT", "strictfp"},
	{0x1000, "ACC_SYNTHETIC", ""},
}

func flagNamesFor(flags uint16, table []flagName) []string {
	names := make([]string, 0, 4)
	for _, fn := range table {
		if flags&fn.mask != 0 {
			names = append(names, fn.name)
		}
	}
	return names
}

func flagKeywordsFor(flags uint16, table []flagName) []string {
	keywords := make([]string, 0, 4)
	for _, fn := range table {
		if flags&fn.mask != 0 && fn.keyword != "" {
			keywords = append(keywords, fn.keyword)
		}
	}
	return keywords
}

// Has reports whether all bits of flag are set.
func (f ClassAccessFlags) Has(flag ClassAccessFlags) bool { return f&flag == flag }

// Names returns the set ACC_* flag names in specification order.
func (f ClassAccessFlags) Names() []string { return flagNamesFor(uint16(f), classFlagNames) }

// Keywords returns the Java source keywords for the set flags, in
// declaration order.
func (f ClassAccessFlags) Keywords() []string { return flagKeywordsFor(uint16(f), classFlagNames) }

// String returns the comma-separated ACC_* names.
func (f ClassAccessFlags) String() string { return strings.Join(f.Names(), ", ") }

// Has reports whether all bits of flag are set.
func (f FieldAccessFlags) Has(flag FieldAccessFlags) bool { return f&flag == flag }

// Names returns the set ACC_* flag names in specification order.
func (f FieldAccessFlags) Names() []string { return flagNamesFor(uint16(f), fieldFlagNames) }

// Keywords returns the Java source keywords for the set flags.
func (f FieldAccessFlags) Keywords() []string { return flagKeywordsFor(uint16(f), fieldFlagNames) }

// String returns the comma-separated ACC_* names.
func (f FieldAccessFlags) String() string { return strings.Join(f.Names(), ", ") }

// Has reports whether all bits of flag are set.
func (f MethodAccessFlags) Has(flag MethodAccessFlags) bool { return f&flag == flag }

// Names returns the set ACC_* flag names in specification order.
func (f MethodAccessFlags) Names() []string { return flagNamesFor(uint16(f), methodFlagNames) }

// Keywords returns the Java source keywords for the set flags.
func (f MethodAccessFlags) Keywords() []string { return flagKeywordsFor(uint16(f), methodFlagNames) }

// String returns the comma-separated ACC_* names.
func (f MethodAccessFlags) String() string { return strings.Join(f.Names(), ", ") }
