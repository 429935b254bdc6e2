// Package advisor derives advisory findings from parsed class files.
package advisor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/class-inspect/internal/classfile"
	"github.com/class-inspect/pkg/model"
)

const (
	// legacyMajorVersion is the oldest class file major version that is
	// not flagged. 52 corresponds to Java 8.
	legacyMajorVersion = 52

	// previewMinorVersion marks classes compiled with --enable-preview.
	// They refuse to load on any other JVM release.
	previewMinorVersion = 0xFFFF

	// oversizedMethodBytes matches the HotSpot DontCompileHugeMethods
	// limit: method bodies past this size are never JIT-compiled.
	oversizedMethodBytes = 8000

	// oversizedPoolEntries flags constant pools large enough to suggest
	// generated or pathological code.
	oversizedPoolEntries = 10000
)

// Advisor applies inspection rules to parsed class files.
type Advisor struct {
	rules []Rule
}

// Rule represents one inspection rule.
type Rule struct {
	Name        string
	Description string
	Check       RuleCheckFunc
}

// RuleCheckFunc reports zero or more findings for a class.
type RuleCheckFunc func(ctx *RuleContext) []model.Finding

// RuleContext provides context for rule checking.
type RuleContext struct {
	Class *classfile.ClassFile
}

// NewAdvisor creates a new Advisor with the default rules.
func NewAdvisor() *Advisor {
	return &Advisor{
		rules: defaultRules(),
	}
}

// NewAdvisorWithRules creates a new Advisor with custom rules.
func NewAdvisorWithRules(rules []Rule) *Advisor {
	return &Advisor{
		rules: rules,
	}
}

// Advise runs every rule against the class and collects the findings.
func (a *Advisor) Advise(ctx *RuleContext) []model.Finding {
	if ctx == nil || ctx.Class == nil {
		return nil
	}

	findings := make([]model.Finding, 0)
	for _, rule := range a.rules {
		if rule.Check != nil {
			findings = append(findings, rule.Check(ctx)...)
		}
	}
	return findings
}

// defaultRules returns the default set of inspection rules.
func defaultRules() []Rule {
	return []Rule{
		{
			Name:        "legacy_version",
			Description: "Check for class files compiled for a pre-Java 8 release",
			Check:       checkLegacyVersion,
		},
		{
			Name:        "preview_features",
			Description: "Check for classes compiled with --enable-preview",
			Check:       checkPreviewFeatures,
		},
		{
			Name:        "oversized_method",
			Description: "Check for method bodies too large for the JIT compiler",
			Check:       checkOversizedMethods,
		},
		{
			Name:        "missing_debug_info",
			Description: "Check for classes stripped of source and line information",
			Check:       checkMissingDebugInfo,
		},
		{
			Name:        "oversized_constant_pool",
			Description: "Check for abnormally large constant pools",
			Check:       checkOversizedConstantPool,
		},
		{
			Name:        "unknown_attributes",
			Description: "Check for attributes outside the class file specification",
			Check:       checkUnknownAttributes,
		},
	}
}

// checkLegacyVersion flags classes targeting a pre-Java 8 JVM.
func checkLegacyVersion(ctx *RuleContext) []model.Finding {
	cf := ctx.Class
	if cf.MajorVersion >= legacyMajorVersion {
		return nil
	}
	release := model.JavaReleaseName(cf.MajorVersion, cf.MinorVersion)
	return []model.Finding{
		model.NewFindingBuilder("legacy_version").
			WithSeverity(model.SeverityWarning).
			WithMessage(fmt.Sprintf("compiled for %s (major version %d), which predates Java 8", release, cf.MajorVersion)).
			WithValue(int64(cf.MajorVersion)).
			Build(),
	}
}

// checkPreviewFeatures flags classes built with --enable-preview.
func checkPreviewFeatures(ctx *RuleContext) []model.Finding {
	cf := ctx.Class
	if cf.MinorVersion != previewMinorVersion {
		return nil
	}
	release := model.JavaReleaseName(cf.MajorVersion, 0)
	return []model.Finding{
		model.NewFindingBuilder("preview_features").
			WithSeverity(model.SeverityWarning).
			WithMessage(fmt.Sprintf("uses preview features of %s and only loads on that exact release", release)).
			WithValue(int64(cf.MajorVersion)).
			Build(),
	}
}

// checkOversizedMethods flags method bodies the JIT will refuse.
func checkOversizedMethods(ctx *RuleContext) []model.Finding {
	cf := ctx.Class

	var findings []model.Finding
	for i := range cf.Methods {
		method := &cf.Methods[i]
		code, err := method.Code(cf.ConstantPool)
		if err != nil || code == nil {
			continue
		}
		if len(code.Code) <= oversizedMethodBytes {
			continue
		}
		findings = append(findings, model.NewFindingBuilder("oversized_method").
			WithSeverity(model.SeverityWarning).
			WithMessage(fmt.Sprintf("method body is %d bytes, above the %d byte JIT compilation limit", len(code.Code), oversizedMethodBytes)).
			WithMethod(methodDisplay(cf.ConstantPool, method)).
			WithValue(int64(len(code.Code))).
			Build())
	}
	return findings
}

// checkMissingDebugInfo flags classes compiled without -g defaults.
func checkMissingDebugInfo(ctx *RuleContext) []model.Finding {
	cf := ctx.Class
	sourceFile, err := cf.SourceFileName()
	if err != nil {
		return nil
	}

	var missing []string
	if sourceFile == "" {
		missing = append(missing, "SourceFile")
	}

	hasCode := false
	hasLines := false
	for i := range cf.Methods {
		code, err := cf.Methods[i].Code(cf.ConstantPool)
		if err != nil || code == nil {
			continue
		}
		hasCode = true
		if hasLineNumberTable(code, cf.ConstantPool) {
			hasLines = true
			break
		}
	}
	if hasCode && !hasLines {
		missing = append(missing, "LineNumberTable")
	}

	if len(missing) == 0 {
		return nil
	}
	return []model.Finding{
		model.NewFindingBuilder("missing_debug_info").
			WithMessage(fmt.Sprintf("compiled without debug information (no %s); stack traces will not carry source locations", strings.Join(missing, ", no "))).
			Build(),
	}
}

// checkOversizedConstantPool flags abnormally large pools.
func checkOversizedConstantPool(ctx *RuleContext) []model.Finding {
	count := ctx.Class.ConstantPool.Count()
	if count <= oversizedPoolEntries {
		return nil
	}
	return []model.Finding{
		model.NewFindingBuilder("oversized_constant_pool").
			WithSeverity(model.SeverityWarning).
			WithMessage(fmt.Sprintf("constant pool holds %d entries, often a sign of generated code", count)).
			WithValue(int64(count)).
			Build(),
	}
}

// checkUnknownAttributes flags attribute names that no specification
// release defines, which means a specific tool must have produced the
// class and other tools may mishandle it.
func checkUnknownAttributes(ctx *RuleContext) []model.Finding {
	cf := ctx.Class

	unknown := make(map[string]struct{})
	collect := func(attributes []classfile.Attribute) {
		for _, attr := range attributes {
			name, err := attr.Name(cf.ConstantPool)
			if err != nil {
				continue
			}
			if _, ok := standardAttributes[name]; !ok {
				unknown[name] = struct{}{}
			}
		}
	}

	collect(cf.Attributes)
	for i := range cf.Fields {
		collect(cf.Fields[i].Attributes)
	}
	for i := range cf.Methods {
		collect(cf.Methods[i].Attributes)
	}

	if len(unknown) == 0 {
		return nil
	}
	names := make([]string, 0, len(unknown))
	for name := range unknown {
		names = append(names, name)
	}
	sort.Strings(names)

	return []model.Finding{
		model.NewFindingBuilder("unknown_attributes").
			WithMessage(fmt.Sprintf("carries nonstandard attributes: %s", strings.Join(names, ", "))).
			WithValue(int64(len(names))).
			Build(),
	}
}

func methodDisplay(pool *classfile.ConstantPool, m *classfile.Method) string {
	name, err := m.Name(pool)
	if err != nil {
		return fmt.Sprintf("#%d", m.NameIndex)
	}
	descriptor, err := m.Descriptor(pool)
	if err != nil {
		return name
	}
	return name + descriptor
}

func hasLineNumberTable(code *classfile.CodeAttribute, pool *classfile.ConstantPool) bool {
	for _, attr := range code.Attributes {
		name, err := attr.Name(pool)
		if err == nil && name == classfile.AttrLineNumberTable {
			return true
		}
	}
	return false
}

// standardAttributes lists every predefined attribute name from the
// class file specification, through the Java 21 release.
var standardAttributes = map[string]struct{}{
	"AnnotationDefault":                    {},
	"BootstrapMethods":                     {},
	"Code":                                 {},
	"ConstantValue":                        {},
	"Deprecated":                           {},
	"EnclosingMethod":                      {},
	"Exceptions":                           {},
	"InnerClasses":                         {},
	"LineNumberTable":                      {},
	"LocalVariableTable":                   {},
	"LocalVariableTypeTable":               {},
	"MethodParameters":                     {},
	"Module":                               {},
	"ModuleMainClass":                      {},
	"ModulePackages":                       {},
	"NestHost":                             {},
	"NestMembers":                          {},
	"PermittedSubclasses":                  {},
	"Record":                               {},
	"RuntimeInvisibleAnnotations":          {},
	"RuntimeInvisibleParameterAnnotations": {},
	"RuntimeInvisibleTypeAnnotations":      {},
	"RuntimeVisibleAnnotations":            {},
	"RuntimeVisibleParameterAnnotations":   {},
	"RuntimeVisibleTypeAnnotations":        {},
	"Signature":                            {},
	"SourceDebugExtension":                 {},
	"SourceFile":                           {},
	"StackMapTable":                        {},
	"Synthetic":                            {},
}
