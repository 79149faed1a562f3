package dependencies

import "strings"

// knownSPDX lists identifiers that are emitted verbatim as SPDX ids.
var knownSPDX = map[string]string{
	"MIT":               "MIT",
	"APACHE-2.0":        "Apache-2.0",
	"BSD-2-CLAUSE":      "BSD-2-Clause",
	"BSD-3-CLAUSE":      "BSD-3-Clause",
	"ISC":               "ISC",
	"MPL-2.0":           "MPL-2.0",
	"GPL-2.0":           "GPL-2.0-only",
	"GPL-2.0-ONLY":      "GPL-2.0-only",
	"GPL-2.0-OR-LATER":  "GPL-2.0-or-later",
	"GPL-3.0":           "GPL-3.0-only",
	"GPL-3.0-ONLY":      "GPL-3.0-only",
	"GPL-3.0-OR-LATER":  "GPL-3.0-or-later",
	"LGPL-2.1":          "LGPL-2.1-only",
	"LGPL-2.1-ONLY":     "LGPL-2.1-only",
	"LGPL-3.0":          "LGPL-3.0-only",
	"LGPL-3.0-ONLY":     "LGPL-3.0-only",
	"LGPL-3.0-OR-LATER": "LGPL-3.0-or-later",
	"PSF-2.0":           "PSF-2.0",
	"UNLICENSE":         "Unlicense",
	"0BSD":              "0BSD",
	"ZLIB":              "Zlib",
	"CC0-1.0":           "CC0-1.0",
}

// SPDXID maps a resolved license string to an SPDX identifier when the
// mapping is unambiguous. Classifier names such as "MIT License" and
// "Apache Software License" are recognised; a bare "BSD License" is not,
// because the clause count is unknown.
func SPDXID(license string) (string, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(license))
	if id, ok := knownSPDX[normalized]; ok {
		return id, true
	}

	// Order matters: check more specific patterns first
	switch {
	case normalized == "MIT LICENSE":
		return "MIT", true
	case strings.Contains(normalized, "BSD 3-CLAUSE"):
		return "BSD-3-Clause", true
	case strings.Contains(normalized, "BSD 2-CLAUSE"):
		return "BSD-2-Clause", true
	case normalized == "APACHE SOFTWARE LICENSE" || normalized == "APACHE 2.0" || normalized == "APACHE LICENSE 2.0" || normalized == "APACHE LICENSE, VERSION 2.0":
		return "Apache-2.0", true
	case normalized == "ISC LICENSE (ISCL)" || normalized == "ISC LICENSE":
		return "ISC", true
	case strings.HasPrefix(normalized, "MOZILLA PUBLIC LICENSE 2.0"):
		return "MPL-2.0", true
	case normalized == "PYTHON SOFTWARE FOUNDATION LICENSE":
		return "PSF-2.0", true
	case normalized == "THE UNLICENSE (UNLICENSE)":
		return "Unlicense", true
	default:
		return "", false
	}
}

// IsLicenseExpression reports whether license combines identifiers with SPDX operators.
func IsLicenseExpression(license string) bool {
	l := " " + strings.TrimSpace(license) + " "
	return strings.Contains(l, " OR ") || strings.Contains(l, " AND ") || strings.Contains(l, " WITH ")
}

// LicenseURL returns a canonical URL for a known SPDX identifier.
func LicenseURL(spdxID string) string {
	switch spdxID {
	case "MIT":
		return "https://opensource.org/licenses/MIT"
	case "Apache-2.0":
		return "https://www.apache.org/licenses/LICENSE-2.0"
	case "BSD-3-Clause":
		return "https://opensource.org/licenses/BSD-3-Clause"
	case "BSD-2-Clause":
		return "https://opensource.org/licenses/BSD-2-Clause"
	case "GPL-3.0-only", "GPL-3.0-or-later":
		return "https://www.gnu.org/licenses/gpl-3.0.html"
	case "GPL-2.0-only", "GPL-2.0-or-later":
		return "https://www.gnu.org/licenses/gpl-2.0.html"
	case "LGPL-3.0-only", "LGPL-3.0-or-later":
		return "https://www.gnu.org/licenses/lgpl-3.0.html"
	case "ISC":
		return "https://opensource.org/licenses/ISC"
	case "MPL-2.0":
		return "https://www.mozilla.org/en-US/MPL/2.0/"
	case "Unlicense":
		return "http://unlicense.org/"
	default:
		return ""
	}
}
