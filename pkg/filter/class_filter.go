// Package filter provides class name filtering for scans. It decides
// which classes a scan reports on and classifies names into coarse
// origin categories.
package filter

import (
	"strings"
	"sync"
)

// ClassCategory represents the origin category of a class.
type ClassCategory int

const (
	// CategoryUnknown indicates the class category is unknown.
	CategoryUnknown ClassCategory = iota
	// CategoryJDK indicates JDK platform classes.
	CategoryJDK
	// CategoryGenerated indicates compiler or framework generated
	// classes, such as proxies and lambda holders.
	CategoryGenerated
	// CategoryApplication indicates application-level classes.
	CategoryApplication
	// CategoryBusiness indicates classes under configured business
	// package prefixes.
	CategoryBusiness
)

// String returns the string representation of the category.
func (c ClassCategory) String() string {
	switch c {
	case CategoryJDK:
		return "jdk"
	case CategoryGenerated:
		return "generated"
	case CategoryApplication:
		return "application"
	case CategoryBusiness:
		return "business"
	default:
		return "unknown"
	}
}

// ClassFilter decides scan membership and classifies class names.
// Names are binary names with slash separators; dotted prefixes are
// accepted and normalized. It is safe for concurrent use.
type ClassFilter struct {
	mu sync.RWMutex

	// JDK class prefixes
	jdkPrefixes []string

	// Generated-code markers: prefixes and name fragments left by
	// proxy generators, lambda metafactories, and weavers
	generatedPrefixes []string
	generatedMarkers  []string

	// Scan membership rules. Empty include means everything.
	includePrefixes []string
	excludePrefixes []string

	// Custom business package prefixes
	businessPrefixes []string

	// Cache for frequently queried classes
	categoryCache     map[string]ClassCategory
	categoryCacheSize int
}

// NewClassFilter creates a new ClassFilter with default rules.
func NewClassFilter() *ClassFilter {
	f := &ClassFilter{
		categoryCache:     make(map[string]ClassCategory),
		categoryCacheSize: 10000, // Cache up to 10k classes
	}
	f.initDefaults()
	return f
}

// initDefaults initializes default filtering rules.
func (f *ClassFilter) initDefaults() {
	f.jdkPrefixes = []string{
		"java/",
		"javax/",
		"jdk/",
		"sun/",
		"com/sun/",
	}

	f.generatedPrefixes = []string{
		"jdk/proxy",
		"com/sun/proxy/$Proxy",
	}

	f.generatedMarkers = []string{
		"$$Lambda",
		"$$EnhancerBy",
		"$$FastClassBy",
		"$Proxy",
		"$HibernateProxy",
		"_jsp",
	}
}

// normalizePrefix converts dotted package prefixes to binary form.
func normalizePrefix(prefix string) string {
	return strings.ReplaceAll(prefix, ".", "/")
}

func normalizePrefixes(prefixes []string) []string {
	normalized := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		normalized = append(normalized, normalizePrefix(p))
	}
	return normalized
}

// SetIncludePrefixes replaces the include rules. An empty set includes
// every class not excluded.
func (f *ClassFilter) SetIncludePrefixes(prefixes []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.includePrefixes = normalizePrefixes(prefixes)
}

// SetExcludePrefixes replaces the exclude rules. Exclusion wins over
// inclusion.
func (f *ClassFilter) SetExcludePrefixes(prefixes []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.excludePrefixes = normalizePrefixes(prefixes)
}

// Match reports whether a class belongs in the scan under the current
// include/exclude rules.
func (f *ClassFilter) Match(className string) bool {
	if className == "" {
		return false
	}

	f.mu.RLock()
	include := f.includePrefixes
	exclude := f.excludePrefixes
	f.mu.RUnlock()

	for _, prefix := range exclude {
		if strings.HasPrefix(className, prefix) {
			return false
		}
	}

	if len(include) == 0 {
		return true
	}
	for _, prefix := range include {
		if strings.HasPrefix(className, prefix) {
			return true
		}
	}
	return false
}

// Classify returns the category of a class.
func (f *ClassFilter) Classify(className string) ClassCategory {
	if className == "" {
		return CategoryUnknown
	}

	// Check cache first
	f.mu.RLock()
	if cat, ok := f.categoryCache[className]; ok {
		f.mu.RUnlock()
		return cat
	}
	f.mu.RUnlock()

	cat := f.classifyUncached(className)

	// Update cache (with size limit)
	f.mu.Lock()
	if len(f.categoryCache) < f.categoryCacheSize {
		f.categoryCache[className] = cat
	}
	f.mu.Unlock()

	return cat
}

// classifyUncached computes the category without using cache.
func (f *ClassFilter) classifyUncached(className string) ClassCategory {
	for _, prefix := range f.generatedPrefixes {
		if strings.HasPrefix(className, prefix) {
			return CategoryGenerated
		}
	}
	for _, marker := range f.generatedMarkers {
		if strings.Contains(className, marker) {
			return CategoryGenerated
		}
	}

	for _, prefix := range f.jdkPrefixes {
		if strings.HasPrefix(className, prefix) {
			return CategoryJDK
		}
	}

	f.mu.RLock()
	businessPrefixes := f.businessPrefixes
	f.mu.RUnlock()

	for _, prefix := range businessPrefixes {
		if strings.HasPrefix(className, prefix) {
			return CategoryBusiness
		}
	}

	return CategoryApplication
}

// IsJDK returns true if the class is a JDK platform class.
func (f *ClassFilter) IsJDK(className string) bool {
	return f.Classify(className) == CategoryJDK
}

// IsGenerated returns true if the class looks generated rather than
// written by hand.
func (f *ClassFilter) IsGenerated(className string) bool {
	return f.Classify(className) == CategoryGenerated
}

// IsBusiness returns true if the class falls under a configured
// business prefix.
func (f *ClassFilter) IsBusiness(className string) bool {
	return f.Classify(className) == CategoryBusiness
}

// IsApplicationLevel returns true if the class is neither a JDK class
// nor generated code. This is what advisory reporting cares about.
func (f *ClassFilter) IsApplicationLevel(className string) bool {
	cat := f.Classify(className)
	return cat != CategoryJDK && cat != CategoryGenerated
}

// AddBusinessPrefix adds a custom business package prefix. Classes with
// this prefix will be classified as CategoryBusiness.
func (f *ClassFilter) AddBusinessPrefix(prefix string) {
	prefix = normalizePrefix(prefix)

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.businessPrefixes {
		if p == prefix {
			return
		}
	}

	f.businessPrefixes = append(f.businessPrefixes, prefix)

	// Clear cache since classification may change
	f.categoryCache = make(map[string]ClassCategory)
}

// AddBusinessPrefixes adds multiple custom business package prefixes.
func (f *ClassFilter) AddBusinessPrefixes(prefixes []string) {
	for _, prefix := range prefixes {
		f.AddBusinessPrefix(prefix)
	}
}

// GetBusinessPrefixes returns the current list of business prefixes.
func (f *ClassFilter) GetBusinessPrefixes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make([]string, len(f.businessPrefixes))
	copy(result, f.businessPrefixes)
	return result
}

// AddJDKPrefix adds a custom JDK prefix.
func (f *ClassFilter) AddJDKPrefix(prefix string) {
	prefix = normalizePrefix(prefix)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.jdkPrefixes = append(f.jdkPrefixes, prefix)
	f.categoryCache = make(map[string]ClassCategory)
}

// AddGeneratedMarker adds a name fragment that marks generated classes.
func (f *ClassFilter) AddGeneratedMarker(marker string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.generatedMarkers = append(f.generatedMarkers, marker)
	f.categoryCache = make(map[string]ClassCategory)
}

// ClearCache clears the classification cache.
func (f *ClassFilter) ClearCache() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.categoryCache = make(map[string]ClassCategory)
}

// CacheStats returns cache statistics.
func (f *ClassFilter) CacheStats() (size int, maxSize int) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.categoryCache), f.categoryCacheSize
}

// SetCacheSize sets the maximum cache size.
func (f *ClassFilter) SetCacheSize(size int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.categoryCacheSize = size
	if len(f.categoryCache) > size {
		f.categoryCache = make(map[string]ClassCategory)
	}
}

// DefaultFilter is the default global filter instance.
var DefaultFilter = NewClassFilter()

// Classify classifies a class using the default filter.
func Classify(className string) ClassCategory {
	return DefaultFilter.Classify(className)
}

// Match checks scan membership using the default filter.
func Match(className string) bool {
	return DefaultFilter.Match(className)
}

// IsJDK checks if a class is a JDK platform class using the default
// filter.
func IsJDK(className string) bool {
	return DefaultFilter.IsJDK(className)
}

// IsGenerated checks if a class looks generated using the default
// filter.
func IsGenerated(className string) bool {
	return DefaultFilter.IsGenerated(className)
}

// IsBusiness checks if a class is business code using the default
// filter.
func IsBusiness(className string) bool {
	return DefaultFilter.IsBusiness(className)
}

// IsApplicationLevel checks if a class is application-level using the
// default filter.
func IsApplicationLevel(className string) bool {
	return DefaultFilter.IsApplicationLevel(className)
}

// AddBusinessPrefix adds a business prefix to the default filter.
func AddBusinessPrefix(prefix string) {
	DefaultFilter.AddBusinessPrefix(prefix)
}
