package refgraph

import (
	"fmt"
	"strings"

	"github.com/class-inspect/internal/classfile"
)

// Options holds configuration options for the reference graph builder.
type Options struct {
	// IncludeMemberRefs adds field and method edges from member
	// references in the constant pool.
	IncludeMemberRefs bool

	// IncludeUses adds edges for classes referenced only through plain
	// Class entries, such as casts and instantiations.
	IncludeUses bool

	// SkipJDK drops edges whose target is a JDK platform class.
	SkipJDK bool

	// MinEdgeCount filters edges referenced fewer times when the graph
	// is finalized. Zero keeps everything.
	MinEdgeCount int
}

// DefaultOptions returns default builder options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMemberRefs: true,
		IncludeUses:       true,
	}
}

// Builder accumulates parsed classes into a reference graph. Feed
// classes with Add as a scan streams them, then take the result with
// Build. A Builder is good for one graph.
type Builder struct {
	opts  *Options
	graph *RefGraph
}

// NewBuilder creates a new reference graph builder.
func NewBuilder(opts *Options) *Builder {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Builder{
		opts:  opts,
		graph: NewRefGraph(),
	}
}

// Add extracts the references of one parsed class into the graph.
func (b *Builder) Add(cf *classfile.ClassFile) error {
	source, err := cf.ClassName()
	if err != nil {
		return fmt.Errorf("failed to resolve class name: %w", err)
	}

	b.graph.AddNode(source, true)
	b.graph.Classes++

	if super, err := cf.SuperClassName(); err == nil && super != "" {
		b.addEdge(source, super, KindExtends)
	}
	interfaces, _ := cf.InterfaceNames()
	for _, iface := range interfaces {
		b.addEdge(source, iface, KindImplements)
	}

	if !b.opts.IncludeMemberRefs && !b.opts.IncludeUses {
		return nil
	}

	pool := cf.ConstantPool
	memberOwners := make(map[uint16]struct{})

	for index := uint16(1); index < uint16(pool.Count()); index++ {
		c, err := pool.Get(index)
		if err != nil {
			continue
		}

		var ownerIndex uint16
		var kind string
		switch e := c.(type) {
		case classfile.FieldrefConstant:
			ownerIndex, kind = e.ClassIndex, KindField
		case classfile.MethodrefConstant:
			ownerIndex, kind = e.ClassIndex, KindMethod
		case classfile.InterfaceMethodrefConstant:
			ownerIndex, kind = e.ClassIndex, KindMethod
		default:
			continue
		}

		memberOwners[ownerIndex] = struct{}{}
		if !b.opts.IncludeMemberRefs {
			continue
		}
		target, err := pool.ClassName(ownerIndex)
		if err != nil || target == source {
			continue
		}
		b.addEdge(source, target, kind)
	}

	if !b.opts.IncludeUses {
		return nil
	}

	edged := make(map[string]bool, len(interfaces)+1)
	if super, err := cf.SuperClassName(); err == nil {
		edged[super] = true
	}
	for _, iface := range interfaces {
		edged[iface] = true
	}

	for index := uint16(1); index < uint16(pool.Count()); index++ {
		c, err := pool.Get(index)
		if err != nil {
			continue
		}
		class, ok := c.(classfile.ClassConstant)
		if !ok {
			continue
		}
		if _, owner := memberOwners[index]; owner {
			continue
		}
		target, err := pool.Utf8(class.NameIndex)
		if err != nil || target == source || edged[target] {
			continue
		}
		// Array classes like [Ljava/lang/String; name no real type.
		if strings.HasPrefix(target, "[") {
			continue
		}
		b.addEdge(source, target, KindUses)
	}

	return nil
}

// Build finalizes and returns the graph. The builder must not be
// reused afterwards.
func (b *Builder) Build() *RefGraph {
	b.graph.Cleanup(b.opts.MinEdgeCount)
	return b.graph
}

func (b *Builder) addEdge(source, target, kind string) {
	if b.opts.SkipJDK && isJDKClass(target) {
		return
	}
	b.graph.AddEdge(source, target, kind)
}

var jdkPrefixes = []string{"java/", "javax/", "jdk/", "sun/", "com/sun/"}

func isJDKClass(name string) bool {
	for _, prefix := range jdkPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
