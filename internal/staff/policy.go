package staff

import "strings"

// AccessPolicy limits which Google accounts may be pre-authorized.
// Empty lists allow every address.
type AccessPolicy struct {
	AllowedEmails  []string
	AllowedDomains []string
}

// Allows reports whether email is on the allow list or under an allowed domain.
func (p AccessPolicy) Allows(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(p.AllowedEmails) == 0 && len(p.AllowedDomains) == 0 {
		return true
	}
	for _, e := range p.AllowedEmails {
		if strings.ToLower(strings.TrimSpace(e)) == email {
			return true
		}
	}
	for _, d := range p.AllowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if !strings.HasPrefix(d, "@") {
			d = "@" + d
		}
		if strings.HasSuffix(email, d) {
			return true
		}
	}
	return false
}
