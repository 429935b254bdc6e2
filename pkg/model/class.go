// Package model defines the data structures shared across inspection,
// scanning, and reporting.
package model

import "fmt"

// ClassSummary is the condensed, serializable view of one parsed class
// file.
type ClassSummary struct {
	Path          string          `json:"path,omitempty"`
	ClassName     string          `json:"class_name"`
	SuperClass    string          `json:"super_class,omitempty"`
	Interfaces    []string        `json:"interfaces,omitempty"`
	MajorVersion  uint16          `json:"major_version"`
	MinorVersion  uint16          `json:"minor_version"`
	JavaRelease   string          `json:"java_release"`
	AccessFlags   []string        `json:"access_flags,omitempty"`
	SourceFile    string          `json:"source_file,omitempty"`
	ConstantCount int             `json:"constant_count"`
	SizeBytes     int64           `json:"size_bytes,omitempty"`
	Fields        []FieldSummary  `json:"fields,omitempty"`
	Methods       []MethodSummary `json:"methods,omitempty"`
	TotalCodeSize int             `json:"total_code_size"`
	Findings      []Finding       `json:"findings,omitempty"`
}

// FieldSummary describes one field of a class.
type FieldSummary struct {
	Name          string   `json:"name"`
	Descriptor    string   `json:"descriptor"`
	AccessFlags   []string `json:"access_flags,omitempty"`
	ConstantValue string   `json:"constant_value,omitempty"`
}

// MethodSummary describes one method of a class. CodeSize is zero for
// abstract and native methods, which carry no Code attribute.
type MethodSummary struct {
	Name             string   `json:"name"`
	Descriptor       string   `json:"descriptor"`
	AccessFlags      []string `json:"access_flags,omitempty"`
	CodeSize         int      `json:"code_size"`
	MaxStack         uint16   `json:"max_stack,omitempty"`
	MaxLocals        uint16   `json:"max_locals,omitempty"`
	InstructionCount int      `json:"instruction_count,omitempty"`
	HasLineNumbers   bool     `json:"has_line_numbers,omitempty"`
}

// MethodCount returns the number of methods in the summary.
func (s *ClassSummary) MethodCount() int { return len(s.Methods) }

// FieldCount returns the number of fields in the summary.
func (s *ClassSummary) FieldCount() int { return len(s.Fields) }

// HasDebugInfo reports whether the class was compiled with source and
// line information, the default for javac without -g:none.
func (s *ClassSummary) HasDebugInfo() bool {
	if s.SourceFile == "" {
		return false
	}
	for _, m := range s.Methods {
		if m.HasLineNumbers {
			return true
		}
	}
	return false
}

// JavaReleaseName maps a class file version to the Java release that
// produces it, for example 52 to "Java 8". Classes compiled with
// --enable-preview carry minor version 0xFFFF.
func JavaReleaseName(major, minor uint16) string {
	var name string
	switch {
	case major < 45:
		return fmt.Sprintf("unknown (major %d)", major)
	case major <= 48:
		name = fmt.Sprintf("Java 1.%d", major-44)
	default:
		name = fmt.Sprintf("Java %d", major-44)
	}
	if minor == 0xFFFF {
		name += " (preview)"
	}
	return name
}
