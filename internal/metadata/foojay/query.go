package foojay

// Query holds the /packages endpoint's filter parameters, per spec §4.7.
// Grounded on the teacher's per-vendor query construction in
// internal/providers/azul (URL built by hand with fmt.Sprintf) generalized
// into a struct so request building isn't duplicated across endpoints, and
// on original_source/src/api/query.rs's PackageQuery field set.
type Query struct {
	Distribution          string
	Architecture          string
	OperatingSystem       string
	PackageType           string
	ArchiveTypes          []string
	Latest                string
	DirectlyDownloadable  *bool
	LibCType              string
	JavaFXBundled         *bool
	Version               string
}

func (q Query) params() map[string][]string {
	params := map[string][]string{}
	add := func(key, value string) {
		if value != "" {
			params[key] = append(params[key], value)
		}
	}
	add("distribution", q.Distribution)
	add("architecture", q.Architecture)
	add("operating_system", q.OperatingSystem)
	add("package_type", q.PackageType)
	add("latest", q.Latest)
	add("lib_c_type", q.LibCType)
	add("version", q.Version)
	for _, a := range q.ArchiveTypes {
		add("archive_type", a)
	}
	if q.DirectlyDownloadable != nil {
		add("directly_downloadable", boolString(*q.DirectlyDownloadable))
	}
	if q.JavaFXBundled != nil {
		add("javafx_bundled", boolString(*q.JavaFXBundled))
	}
	return params
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
