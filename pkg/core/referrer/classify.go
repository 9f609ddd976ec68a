// Package referrer extracts and classifies the origin of incoming traffic.
package referrer

import (
	"net"
	"net/url"
	"strings"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
)

// NoDomain is returned by ExtractDomain when the URL has no usable host.
const NoDomain = ""

// SocialMediaDomains are classified as social. Subdomains match too.
var SocialMediaDomains = []string{
	"twitter.com", "x.com", "t.co",
	"facebook.com", "fb.com", "instagram.com", "threads.net",
	"tiktok.com", "youtube.com", "youtu.be",
	"linkedin.com", "reddit.com", "pinterest.com",
	"discord.com", "discord.gg", "bsky.app", "mastodon.social",
	"line.me", "note.com", "tumblr.com",
}

// SearchEngineDomains are classified as search. Subdomains match too.
var SearchEngineDomains = []string{
	"google.com", "google.co.jp", "bing.com", "yahoo.com", "yahoo.co.jp",
	"duckduckgo.com", "baidu.com", "yandex.com", "yandex.ru",
	"ecosia.org", "naver.com", "search.brave.com", "startpage.com",
}

// ExtractDomain returns the lower-cased host of rawURL without scheme, port, path, query
// or a leading "www.". Scheme-less input such as "twitter.com/x" is accepted.
func ExtractDomain(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return NoDomain
	}
	if !strings.Contains(s, "://") {
		s = "http://" + strings.TrimPrefix(s, "//")
	}

	u, err := url.Parse(s)
	if err != nil {
		return NoDomain
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimSuffix(host, ".")
	host = strings.TrimPrefix(host, "www.")
	if host == "" || strings.ContainsAny(host, " \t") {
		return NoDomain
	}
	if net.ParseIP(host) == nil && !strings.Contains(host, ".") && host != "localhost" {
		return NoDomain
	}
	return host
}

// ClassifySourceType maps an extracted domain to its source type.
func ClassifySourceType(domainName string) domain.SourceType {
	d := strings.ToLower(strings.TrimSpace(domainName))
	switch {
	case d == NoDomain:
		return domain.SourceDirect
	case matchesAny(d, SocialMediaDomains):
		return domain.SourceSocial
	case matchesAny(d, SearchEngineDomains):
		return domain.SourceSearch
	default:
		return domain.SourceOther
	}
}

// Classify derives the full referrer record for rawURL.
func Classify(rawURL string) domain.ReferrerLog {
	d := ExtractDomain(rawURL)
	return domain.ReferrerLog{
		ReferrerURL:  strings.TrimSpace(rawURL),
		SourceDomain: d,
		SourceType:   ClassifySourceType(d),
	}
}

func matchesAny(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
