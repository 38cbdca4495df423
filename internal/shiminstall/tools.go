// Package shiminstall implements kopi's shim installer (L12): creating,
// removing, listing, verifying and repairing the one-entry-per-tool shims
// under <kopi_home>/shims/, plus the registry of which JDK tools exist for
// which distribution/major-version combination. Grounded on
// original_source/src/shim/{installer,tools}.rs.
package shiminstall

import "strings"

// Category buckets a tool for display purposes (spec §4.12's tool
// registry groups java/javac core vs jdb/jconsole debug vs ...).
type Category string

const (
	CategoryCore       Category = "core"
	CategoryDebug      Category = "debug"
	CategoryMonitoring Category = "monitoring"
	CategorySecurity   Category = "security"
	CategoryUtility    Category = "utility"
)

// Tool describes one JDK-bundled executable kopi can shim.
type Tool struct {
	Name        string
	Category    Category
	Description string
	// MinVersion/MaxVersion bound the JDK major versions a tool exists
	// in; nil means unbounded on that side.
	MinVersion *int
	MaxVersion *int
}

func ver(v int) *int { return &v }

// standardTools is kopi's full registry of known JDK command-line tools,
// with the version windows each was introduced or removed in, per
// original_source/src/shim/tools.rs:standard_tools.
var standardTools = []Tool{
	{Name: "java", Category: CategoryCore, Description: "Java application launcher"},
	{Name: "javac", Category: CategoryCore, Description: "Java compiler"},
	{Name: "javadoc", Category: CategoryCore, Description: "Java documentation generator"},
	{Name: "jar", Category: CategoryCore, Description: "Java archive tool"},
	{Name: "javap", Category: CategoryCore, Description: "Java class file disassembler"},

	{Name: "jdb", Category: CategoryDebug, Description: "Java debugger"},
	{Name: "jconsole", Category: CategoryDebug, Description: "Java monitoring and management console"},
	{Name: "jstack", Category: CategoryDebug, Description: "Stack trace tool"},
	{Name: "jmap", Category: CategoryDebug, Description: "Memory map tool"},
	{Name: "jhat", Category: CategoryDebug, Description: "Heap analysis tool", MaxVersion: ver(8)},
	{Name: "jhsdb", Category: CategoryDebug, Description: "HotSpot debugger", MinVersion: ver(9)},

	{Name: "jps", Category: CategoryMonitoring, Description: "JVM process status tool"},
	{Name: "jstat", Category: CategoryMonitoring, Description: "JVM statistics monitoring tool"},
	{Name: "jinfo", Category: CategoryMonitoring, Description: "Configuration info tool"},
	{Name: "jcmd", Category: CategoryMonitoring, Description: "JVM diagnostic command tool", MinVersion: ver(7)},
	{Name: "jfr", Category: CategoryMonitoring, Description: "Java Flight Recorder", MinVersion: ver(11)},
	{Name: "jstatd", Category: CategoryMonitoring, Description: "JVM statistics daemon"},
	{Name: "asprof", Category: CategoryMonitoring, Description: "SAP Machine async profiler"},

	{Name: "keytool", Category: CategorySecurity, Description: "Key and certificate management tool"},
	{Name: "jarsigner", Category: CategorySecurity, Description: "JAR signing and verification tool"},
	{Name: "policytool", Category: CategorySecurity, Description: "Policy file creation and management tool", MaxVersion: ver(10)},

	{Name: "jshell", Category: CategoryUtility, Description: "Java shell (REPL)", MinVersion: ver(9)},
	{Name: "jlink", Category: CategoryUtility, Description: "Java linker", MinVersion: ver(9)},
	{Name: "jmod", Category: CategoryUtility, Description: "Java module tool", MinVersion: ver(9)},
	{Name: "jdeps", Category: CategoryUtility, Description: "Java dependency analyzer", MinVersion: ver(8)},
	{Name: "jpackage", Category: CategoryUtility, Description: "Java packaging tool", MinVersion: ver(14)},
	{Name: "serialver", Category: CategoryUtility, Description: "Serial version inspector"},
	{Name: "rmiregistry", Category: CategoryUtility, Description: "Java RMI registry"},
	{Name: "jdeprscan", Category: CategoryUtility, Description: "Deprecated API scanner", MinVersion: ver(9)},
	{Name: "jimage", Category: CategoryUtility, Description: "JDK module image tool", MinVersion: ver(9)},
	{Name: "jrunscript", Category: CategoryUtility, Description: "Script execution tool"},
	{Name: "jwebserver", Category: CategoryUtility, Description: "Simple web server", MinVersion: ver(18)},
	{Name: "native-image", Category: CategoryUtility, Description: "GraalVM native image builder"},
	{Name: "native-image-configure", Category: CategoryUtility, Description: "GraalVM native image configuration tool"},
	{Name: "native-image-inspect", Category: CategoryUtility, Description: "GraalVM native image inspection tool"},
	{Name: "js", Category: CategoryUtility, Description: "GraalVM JavaScript interpreter", MaxVersion: ver(22)},
}

// graalvmOnlyTools exist only in the GraalVM distribution; every other
// distribution excludes them entirely.
var graalvmOnlyTools = []string{"native-image", "native-image-configure", "native-image-inspect", "js"}

// sapMachineOnlyTools exist only in the SAP Machine distribution.
var sapMachineOnlyTools = []string{"asprof"}

// Registry answers tool-availability questions for a (tool, distribution,
// major version) triple, per spec §4.12's "registry ... carries
// availability windows by JDK major version and a distribution exclusion
// map" requirement.
type Registry struct {
	tools []Tool
}

// NewRegistry builds the standard kopi tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: standardTools}
}

// AllTools returns every known tool.
func (r *Registry) AllTools() []Tool { return r.tools }

// CoreTools returns the tools in CategoryCore. This is not the set kopi
// shims by default; that set is DefaultShimTools.
func (r *Registry) CoreTools() []Tool {
	return r.ToolsByCategory(CategoryCore)
}

// ToolsByCategory filters AllTools by category.
func (r *Registry) ToolsByCategory(cat Category) []Tool {
	var out []Tool
	for _, t := range r.tools {
		if t.Category == cat {
			out = append(out, t)
		}
	}
	return out
}

func (r *Registry) lookup(name string) (Tool, bool) {
	for _, t := range r.tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// IsToolAvailable reports whether tool exists for distribution at
// majorVersion, combining the tool's own min/max version window with the
// per-distribution exclusion rules (GraalVM-only, SAP-Machine-only, and
// GraalVM's js removal in 23+), per spec §4.12.
func (r *Registry) IsToolAvailable(toolName, distribution string, majorVersion int) bool {
	tool, ok := r.lookup(toolName)
	if !ok {
		return false
	}
	if tool.MinVersion != nil && majorVersion < *tool.MinVersion {
		return false
	}
	if tool.MaxVersion != nil && majorVersion > *tool.MaxVersion {
		return false
	}

	dist := strings.ToLower(distribution)
	isGraalVM := dist == "graalvm"
	isSapMachine := dist == "sapmachine" || dist == "sap_machine" || dist == "sap-machine"

	if containsName(graalvmOnlyTools, toolName) && !isGraalVM {
		return false
	}
	if containsName(sapMachineOnlyTools, toolName) && !isSapMachine {
		return false
	}
	// js's own MaxVersion(22) already covers its GraalVM-23+ removal.

	return true
}

// AvailableTools returns every tool usable for distribution at
// majorVersion.
func (r *Registry) AvailableTools(distribution string, majorVersion int) []Tool {
	var out []Tool
	for _, t := range r.tools {
		if r.IsToolAvailable(t.Name, distribution, majorVersion) {
			out = append(out, t)
		}
	}
	return out
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// DefaultShimTools is the set kopi creates shims for out of the box when
// none are explicitly requested, per
// original_source/src/shim/tools.rs:default_shim_tools.
func DefaultShimTools() []string {
	return []string{"java", "javac", "javadoc", "jar", "jshell"}
}
