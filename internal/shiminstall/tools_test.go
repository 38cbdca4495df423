package shiminstall

import "testing"

func TestCoreToolsIncludesJava(t *testing.T) {
	r := NewRegistry()
	core := r.CoreTools()
	found := false
	for _, t2 := range core {
		if t2.Name == "java" {
			found = true
		}
	}
	if !found {
		t.Error("expected java in CoreTools")
	}
}

func TestIsToolAvailableRespectsVersionWindow(t *testing.T) {
	r := NewRegistry()
	if r.IsToolAvailable("jshell", "temurin", 8) {
		t.Error("jshell should not be available on JDK 8 (introduced in 9)")
	}
	if !r.IsToolAvailable("jshell", "temurin", 11) {
		t.Error("jshell should be available on JDK 11")
	}
	if !r.IsToolAvailable("jhat", "temurin", 8) {
		t.Error("jhat should be available on JDK 8")
	}
	if r.IsToolAvailable("jhat", "temurin", 11) {
		t.Error("jhat should not be available on JDK 11 (removed after 8)")
	}
}

func TestIsToolAvailableRestrictsGraalVmOnlyTools(t *testing.T) {
	r := NewRegistry()
	if r.IsToolAvailable("native-image", "temurin", 21) {
		t.Error("native-image should not be available on temurin")
	}
	if !r.IsToolAvailable("native-image", "graalvm", 21) {
		t.Error("native-image should be available on graalvm")
	}
}

func TestIsToolAvailableRestrictsSapMachineOnlyTools(t *testing.T) {
	r := NewRegistry()
	if r.IsToolAvailable("asprof", "temurin", 21) {
		t.Error("asprof should not be available on temurin")
	}
	if !r.IsToolAvailable("asprof", "sapmachine", 21) {
		t.Error("asprof should be available on sapmachine")
	}
}

func TestIsToolAvailableGraalVmJsRemovedAt23(t *testing.T) {
	r := NewRegistry()
	if !r.IsToolAvailable("js", "graalvm", 21) {
		t.Error("js should be available on graalvm 21")
	}
	if r.IsToolAvailable("js", "graalvm", 23) {
		t.Error("js should not be available on graalvm 23+")
	}
}

func TestIsToolAvailableUnknownToolReturnsFalse(t *testing.T) {
	r := NewRegistry()
	if r.IsToolAvailable("not-a-real-tool", "temurin", 21) {
		t.Error("unknown tool should never be available")
	}
}

func TestDefaultShimToolsIncludesJavaAndJavac(t *testing.T) {
	tools := DefaultShimTools()
	want := map[string]bool{"java": true, "javac": true}
	for _, tool := range tools {
		delete(want, tool)
	}
	if len(want) != 0 {
		t.Errorf("DefaultShimTools missing: %v", want)
	}
}
