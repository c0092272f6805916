package policy

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

type DomainResult struct {
	Valid bool
	Error string
	// Suggestion is the domain the user most likely meant, when one is known.
	Suggestion string
}

var emailShape = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9](?:[a-z0-9\-]*[a-z0-9])?(?:\.[a-z0-9](?:[a-z0-9\-]*[a-z0-9])?)*\.[a-z]{2,}$`)

// allowedTLDs is the curated set of top-level domains accepted at signup.
var allowedTLDs = setOf(
	// generic
	"com", "net", "org", "edu", "gov", "mil", "int", "info", "biz", "name", "pro",
	"io", "co", "me", "app", "dev", "ai", "tech", "online", "site", "email",
	"health", "care", "clinic", "doctor", "hospital", "medical", "dental",
	// country codes
	"uk", "ie", "de", "fr", "es", "pt", "it", "nl", "be", "lu", "ch", "at",
	"se", "no", "dk", "fi", "is", "pl", "cz", "sk", "hu", "ro", "bg", "gr",
	"hr", "si", "ee", "lv", "lt", "ua", "ru", "tr", "il", "ae", "sa", "qa",
	"kw", "bh", "om", "jo", "lb", "eg", "ma", "tn", "dz", "ng", "gh", "ke",
	"za", "us", "ca", "mx", "br", "ar", "cl", "pe", "uy", "au", "nz", "in",
	"pk", "bd", "lk", "sg", "my", "id", "ph", "th", "vn", "jp", "kr", "cn",
	"hk", "tw",
)

// providerDomains maps well-known mailbox providers to the public suffixes
// they actually serve. "gmail.co" is a typo, "yahoo.co.uk" is not.
var providerDomains = map[string][]string{
	"gmail":      {"com"},
	"googlemail": {"com"},
	"yahoo":      {"com", "co.uk", "fr", "de", "es", "it", "ca", "com.au", "co.in", "co.jp", "com.br"},
	"hotmail":    {"com", "co.uk", "fr", "de", "es", "it", "be", "nl"},
	"outlook":    {"com", "fr", "de", "es", "it", "co.uk"},
	"live":       {"com", "co.uk", "fr", "nl", "it"},
	"msn":        {"com"},
	"icloud":     {"com"},
	"aol":        {"com"},
	"protonmail": {"com", "ch"},
	"proton":     {"me"},
	"gmx":        {"com", "de", "net", "at", "ch"},
	"yandex":     {"com", "ru"},
	"mail":       {"com", "ru"},
}

// providerTypos catches misspelled provider names with a valid extension.
var providerTypos = map[string]string{
	"gmial":   "gmail",
	"gmai":    "gmail",
	"gamil":   "gmail",
	"gnail":   "gmail",
	"hotmial": "hotmail",
	"hotmai":  "hotmail",
	"yahooo":  "yahoo",
	"yaho":    "yahoo",
	"outlok":  "outlook",
	"iclod":   "icloud",
}

// ValidateEmailDomain checks the shape of email, then its top-level domain
// against the allow-list, then, for well-known providers, that the provider
// is paired with an extension it actually uses.
func ValidateEmailDomain(email string) DomainResult {
	email = NormalizeEmail(email)
	if !emailShape.MatchString(email) {
		return DomainResult{Error: "Please enter a valid email address"}
	}

	domain := email[strings.LastIndexByte(email, '@')+1:]
	tld := domain[strings.LastIndexByte(domain, '.')+1:]

	label, suffix, err := splitDomain(domain)
	if err != nil {
		return DomainResult{Error: "Please enter a valid email domain"}
	}

	suggestion := suggestDomain(label, suffix)

	if !allowedTLDs[tld] {
		r := DomainResult{Error: fmt.Sprintf("The domain extension .%s is not supported", tld), Suggestion: suggestion}
		if suggestion != "" {
			r.Error = fmt.Sprintf("The domain extension .%s looks wrong. Did you mean %s?", tld, suggestion)
		}
		return r
	}

	if suggestion != "" {
		return DomainResult{
			Error:      fmt.Sprintf("Did you mean %s?", suggestion),
			Suggestion: suggestion,
		}
	}

	return DomainResult{Valid: true}
}

// splitDomain returns the registrable label and its public suffix:
// "mx.gmail.co.uk" yields ("gmail", "co.uk").
func splitDomain(domain string) (label, suffix string, err error) {
	etld1, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		return "", "", err
	}
	suffix, _ = publicsuffix.PublicSuffix(domain)
	return strings.TrimSuffix(etld1, "."+suffix), suffix, nil
}

// suggestDomain returns "" when label.suffix is fine or the provider is not
// one we know.
func suggestDomain(label, suffix string) string {
	provider := label
	if fixed, ok := providerTypos[label]; ok {
		provider = fixed
	}

	valid, known := providerDomains[provider]
	if !known {
		return ""
	}
	for _, s := range valid {
		if s == suffix {
			if provider == label {
				return ""
			}
			return provider + "." + suffix
		}
	}
	return provider + "." + valid[0]
}

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
