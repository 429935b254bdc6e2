// Package classfile parses JVM class files into their structural parts.
//
// # Package Organization
//
//   - parser.go: Main parser implementation and options
//   - reader.go: Big-endian cursor over the raw bytes
//   - constant_pool.go: Constant pool entry types and resolution
//   - flags.go: Class, field, and method access flags
//   - attributes.go: Attribute envelope and standard attribute decoding
//   - classfile.go: Parsed class file model and accessors
//   - errors.go: Sentinel errors and offset-carrying ParseError
//
// # Usage Example
//
//	parser := classfile.NewParser(classfile.DefaultParserOptions())
//	cf, err := parser.ParseFile("Example.class")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	name, _ := cf.ClassName()
//	for _, m := range cf.Methods {
//	    methodName, _ := m.Name(cf.ConstantPool)
//	    fmt.Printf("%s.%s\n", name, methodName)
//	}
//
// # Error Handling
//
// Structural problems are reported as a ParseError wrapping one of the
// sentinel errors (ErrInvalidMagic, ErrTruncated, ...) together with the
// byte offset where parsing stopped. I/O failures from ParseReader and
// ParseFile are returned unwrapped so callers can tell the two apart.
//
// Constant pool indexes are 1-based and Long/Double entries occupy two
// slots, exactly as in the format; ConstantPool.Get enforces both rules.
package classfile
