package dependencies

import "strings"

// LicenseCandidate collects the license-bearing metadata fields of one package.
// Empty strings mean the field was absent.
type LicenseCandidate struct {
	License           string
	LicenseExpression string
	Classifiers       []string
}

const classifierPrefix = "License ::"

// ResolveLicense picks one license string from c. The license field wins,
// then the license expression, then the first "License :: ... :: Name"
// classifier. The second result is false when nothing usable was found.
func ResolveLicense(c LicenseCandidate) (string, bool) {
	if l := strings.TrimSpace(c.License); l != "" && l != "UNKNOWN" {
		return l, true
	}
	if e := strings.TrimSpace(c.LicenseExpression); e != "" {
		return e, true
	}
	for _, classifier := range c.Classifiers {
		if name, ok := licenseFromClassifier(classifier); ok {
			return name, true
		}
	}
	return "", false
}

func licenseFromClassifier(classifier string) (string, bool) {
	if !strings.HasPrefix(classifier, classifierPrefix) {
		return "", false
	}
	parts := strings.Split(classifier, "::")
	if len(parts) < 3 {
		return "", false
	}
	name := strings.TrimSpace(parts[len(parts)-1])
	return name, name != ""
}
