package filter

import (
	"sync"
	"testing"
)

func TestClassFilter_Classify(t *testing.T) {
	f := NewClassFilter()

	tests := []struct {
		className string
		expected  ClassCategory
	}{
		// JDK classes
		{"java/lang/String", CategoryJDK},
		{"java/util/HashMap", CategoryJDK},
		{"java/io/File", CategoryJDK},
		{"java/nio/ByteBuffer", CategoryJDK},
		{"javax/servlet/Servlet", CategoryJDK},
		{"sun/misc/Unsafe", CategoryJDK},
		{"jdk/internal/misc/Unsafe", CategoryJDK},

		// Generated classes
		{"jdk/proxy1/$Proxy42", CategoryGenerated},
		{"com/sun/proxy/$Proxy0", CategoryGenerated},
		{"com/example/MyClass$$Lambda$123", CategoryGenerated},
		{"com/example/OrderService$$EnhancerBySpringCGLIB$$1a2b", CategoryGenerated},
		{"org/apache/jsp/index_jsp", CategoryGenerated},

		// Application classes
		{"com/example/MyService", CategoryApplication},
		{"com/mycompany/app/UserController", CategoryApplication},
		{"org/myorg/service/OrderService", CategoryApplication},
		{"org/springframework/web/servlet/DispatcherServlet", CategoryApplication},
		{"io/netty/channel/ChannelHandler", CategoryApplication},

		// Unknown
		{"", CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.className, func(t *testing.T) {
			got := f.Classify(tt.className)
			if got != tt.expected {
				t.Errorf("Classify(%q) = %v, want %v", tt.className, got, tt.expected)
			}
		})
	}
}

func TestClassFilter_Match(t *testing.T) {
	f := NewClassFilter()

	// No rules: everything matches
	if !f.Match("com/example/MyService") {
		t.Error("Expected Match to accept everything with no rules")
	}
	if f.Match("") {
		t.Error("Expected Match to reject the empty name")
	}

	// Include rules narrow the scan
	f.SetIncludePrefixes([]string{"com/example/", "org/myorg/"})
	tests := []struct {
		className string
		expected  bool
	}{
		{"com/example/MyService", true},
		{"com/example/web/Handler", true},
		{"org/myorg/service/OrderService", true},
		{"com/other/Thing", false},
		{"java/lang/String", false},
	}
	for _, tt := range tests {
		if got := f.Match(tt.className); got != tt.expected {
			t.Errorf("Match(%q) = %v, want %v", tt.className, got, tt.expected)
		}
	}

	// Exclusion wins over inclusion
	f.SetExcludePrefixes([]string{"com/example/generated/"})
	if f.Match("com/example/generated/Stub") {
		t.Error("Expected exclude prefix to win over include prefix")
	}
	if !f.Match("com/example/MyService") {
		t.Error("Expected non-excluded class to still match")
	}
}

func TestClassFilter_Match_DottedPrefixes(t *testing.T) {
	f := NewClassFilter()

	// Dotted prefixes from config or flags are normalized
	f.SetIncludePrefixes([]string{"com.example."})

	if !f.Match("com/example/MyService") {
		t.Error("Expected dotted include prefix to match binary name")
	}
	if f.Match("com/other/Thing") {
		t.Error("Expected non-matching class to be rejected")
	}
}

func TestClassFilter_IsApplicationLevel(t *testing.T) {
	f := NewClassFilter()

	tests := []struct {
		className string
		expected  bool
	}{
		// Platform and generated noise
		{"java/lang/String", false},
		{"java/util/HashMap", false},
		{"jdk/proxy1/$Proxy42", false},
		{"com/example/MyClass$$Lambda$123", false},

		// Application-level
		{"com/example/MyService", true},
		{"org/springframework/web/servlet/DispatcherServlet", true},
		{"org/apache/kafka/clients/consumer/KafkaConsumer", true},
	}

	for _, tt := range tests {
		t.Run(tt.className, func(t *testing.T) {
			got := f.IsApplicationLevel(tt.className)
			if got != tt.expected {
				t.Errorf("IsApplicationLevel(%q) = %v, want %v", tt.className, got, tt.expected)
			}
		})
	}
}

func TestClassFilter_AddBusinessPrefix(t *testing.T) {
	f := NewClassFilter()

	// Before adding prefix
	if f.Classify("com/mycompany/MyClass") != CategoryApplication {
		t.Error("Expected CategoryApplication before adding prefix")
	}

	// Add business prefix (dotted form is accepted)
	f.AddBusinessPrefix("com.mycompany.")

	// After adding prefix
	if f.Classify("com/mycompany/MyClass") != CategoryBusiness {
		t.Error("Expected CategoryBusiness after adding prefix")
	}
	if !f.IsBusiness("com/mycompany/MyClass") {
		t.Error("Expected IsBusiness after adding prefix")
	}

	// Other classes should not be affected
	if f.Classify("com/example/MyClass") != CategoryApplication {
		t.Error("Expected CategoryApplication for non-matching prefix")
	}

	// Duplicate adds are ignored
	f.AddBusinessPrefix("com/mycompany/")
	if got := len(f.GetBusinessPrefixes()); got != 1 {
		t.Errorf("Expected 1 business prefix, got %d", got)
	}
}

func TestClassFilter_AddGeneratedMarker(t *testing.T) {
	f := NewClassFilter()

	if f.Classify("com/example/QOrder") != CategoryApplication {
		t.Error("Expected CategoryApplication before adding marker")
	}

	f.AddGeneratedMarker("QOrder")

	if f.Classify("com/example/QOrder") != CategoryGenerated {
		t.Error("Expected CategoryGenerated after adding marker")
	}
}

func TestClassFilter_ConcurrentAccess(t *testing.T) {
	f := NewClassFilter()

	var wg sync.WaitGroup
	numGoroutines := 100
	numIterations := 1000

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numIterations; j++ {
				// Mix of reads and writes
				if j%10 == 0 {
					f.AddBusinessPrefix("com/test" + string(rune('0'+id%10)) + "/")
				}
				f.Classify("java/lang/String")
				f.Classify("com/example/MyClass")
				f.IsBusiness("com/test/Service")
				f.Match("com/example/MyClass")
			}
		}(i)
	}

	wg.Wait()
}

func TestClassFilter_Cache(t *testing.T) {
	f := NewClassFilter()

	// First call - not cached
	cat1 := f.Classify("com/example/MyService")

	// Second call - should be cached
	cat2 := f.Classify("com/example/MyService")

	if cat1 != cat2 {
		t.Errorf("Cached result differs: %v vs %v", cat1, cat2)
	}

	// Check cache stats
	size, maxSize := f.CacheStats()
	if size != 1 {
		t.Errorf("Expected cache size 1, got %d", size)
	}
	if maxSize != 10000 {
		t.Errorf("Expected max cache size 10000, got %d", maxSize)
	}

	// Clear cache
	f.ClearCache()
	size, _ = f.CacheStats()
	if size != 0 {
		t.Errorf("Expected cache size 0 after clear, got %d", size)
	}
}

func TestDefaultFilter(t *testing.T) {
	// Test global functions
	if !IsJDK("java/lang/String") {
		t.Error("Expected IsJDK to return true for java/lang/String")
	}

	if !IsGenerated("jdk/proxy1/$Proxy42") {
		t.Error("Expected IsGenerated to return true for jdk/proxy1/$Proxy42")
	}

	if !IsApplicationLevel("com/example/MyService") {
		t.Error("Expected IsApplicationLevel to return true for com/example/MyService")
	}

	if !Match("com/example/MyService") {
		t.Error("Expected Match to return true for com/example/MyService")
	}

	if Classify("java/util/HashMap") != CategoryJDK {
		t.Error("Expected Classify to return CategoryJDK for java/util/HashMap")
	}
}

func TestClassCategory_String(t *testing.T) {
	tests := []struct {
		cat      ClassCategory
		expected string
	}{
		{CategoryUnknown, "unknown"},
		{CategoryJDK, "jdk"},
		{CategoryGenerated, "generated"},
		{CategoryApplication, "application"},
		{CategoryBusiness, "business"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.cat.String(); got != tt.expected {
				t.Errorf("ClassCategory.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func BenchmarkClassFilter_Classify(b *testing.B) {
	f := NewClassFilter()
	classNames := []string{
		"java/lang/String",
		"com/example/MyService",
		"jdk/proxy1/$Proxy42",
		"org/springframework/web/servlet/DispatcherServlet",
		"com/example/MyClass$$Lambda$123",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, cn := range classNames {
			f.Classify(cn)
		}
	}
}

func BenchmarkClassFilter_Classify_Cached(b *testing.B) {
	f := NewClassFilter()
	className := "com/example/MyService"

	// Pre-populate cache
	f.Classify(className)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.Classify(className)
	}
}

func BenchmarkClassFilter_Match(b *testing.B) {
	f := NewClassFilter()
	f.SetIncludePrefixes([]string{"com/example/"})
	f.SetExcludePrefixes([]string{"com/example/generated/"})

	classNames := []string{
		"com/example/MyService",
		"com/example/generated/Stub",
		"java/util/HashMap",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, cn := range classNames {
			f.Match(cn)
		}
	}
}
