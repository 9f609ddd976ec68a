package referrer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
)

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.twitter.com/x/status/1", "twitter.com"},
		{"https://WWW.Google.COM/search?q=guide", "google.com"},
		{"http://news.ycombinator.com:8080/item?id=1", "news.ycombinator.com"},
		{"twitter.com/someone", "twitter.com"},
		{"//m.facebook.com/path", "m.facebook.com"},
		{"https://192.0.2.10/page", "192.0.2.10"},
		{"http://localhost:3000/", "localhost"},
		{"", NoDomain},
		{"   ", NoDomain},
		{"not a url", NoDomain},
		{"http://", NoDomain},
		{"https://%zz", NoDomain},
		{"justaword", NoDomain},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDomain(tt.in))
		})
	}
}

func TestClassifySourceType(t *testing.T) {
	tests := []struct {
		in   string
		want domain.SourceType
	}{
		{"twitter.com", domain.SourceSocial},
		{"x.com", domain.SourceSocial},
		{"m.facebook.com", domain.SourceSocial},
		{"google.com", domain.SourceSearch},
		{"Google.Co.JP", domain.SourceSearch},
		{"duckduckgo.com", domain.SourceSearch},
		{"", domain.SourceDirect},
		{"example.org", domain.SourceOther},
		{"nottwitter.com", domain.SourceOther},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifySourceType(tt.in))
		})
	}
}

func TestClassify(t *testing.T) {
	got := Classify(" https://www.reddit.com/r/moderation ")
	assert.Equal(t, domain.ReferrerLog{
		ReferrerURL:  "https://www.reddit.com/r/moderation",
		SourceDomain: "reddit.com",
		SourceType:   domain.SourceSocial,
	}, got)

	assert.Equal(t, domain.SourceDirect, Classify("").SourceType)
	assert.Equal(t, domain.SourceDirect, Classify("::::").SourceType)
}
