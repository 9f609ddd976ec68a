package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSensitiveField(t *testing.T) {
	sensitive := []string{
		"password", "PASSWORD", "confirmPassword", "user_passwd", "pwd",
		"authToken", "csrf-token", "client_secret", "API_KEY", "apikey",
		"auth", "x-auth-header", "otp", "sms_otp_code", "pin", "card-pin",
		"Credit-Card", "cardNumber", "cvv", "iban", "account_number",
		"ssn", "social_security", "passport_no", "email", "User_Email", "e-mail",
		"phone", "mobile_number", "tel", "home-address", "birthdate", "dob",
		"full_name", "firstName",
		"login-form-username", "signup_nickname", "payment-amount",
	}
	for _, id := range sensitive {
		assert.True(t, IsSensitiveField(id), "expected %q to be sensitive", id)
	}

	safe := []string{
		"", "search", "query", "comment", "guide-title", "category", "page",
		"footprint", "classname", "bypass", "hotel", "author", "feedback", "rule_id",
	}
	for _, id := range safe {
		assert.False(t, IsSensitiveField(id), "expected %q to be safe", id)
	}
}

func TestIsSensitiveInputUsesFormName(t *testing.T) {
	f := DefaultFilter()

	assert.True(t, f.IsSensitiveInput("username", "LoginForm"))
	assert.True(t, f.IsSensitiveInput("nickname", "account-settings"))
	assert.True(t, f.IsSensitiveInput("message", "contact"))
	assert.True(t, f.IsSensitiveInput("password", ""))
	assert.False(t, f.IsSensitiveInput("message", "guide-feedback"))
	assert.False(t, f.IsSensitiveInput("q", ""))
}

func TestPatternSetIsVersioned(t *testing.T) {
	set := DefaultPatternSet()
	assert.NotEmpty(t, set.Version)
	assert.Equal(t, set.Version, DefaultFilter().Version())
	assert.Equal(t, set.FieldPatterns, SensitiveFieldPatterns)
	assert.Equal(t, set.FormPatterns, SensitiveFormPatterns)
	assert.NotEmpty(t, SensitiveFieldPatterns)
	assert.NotEmpty(t, SensitiveFormPatterns)
}

func TestCustomPatternSet(t *testing.T) {
	set, err := ParsePatternSet([]byte(`{"version":"test-1","fieldPatterns":["nickname"],"formPatterns":["survey"]}`))
	require.NoError(t, err)

	f, err := NewFilter(set)
	require.NoError(t, err)
	assert.Equal(t, "test-1", f.Version())
	assert.True(t, f.IsSensitiveField("NickName"))
	assert.True(t, f.IsSensitiveInput("answer", "Survey-2024"))
	assert.False(t, f.IsSensitiveField("password"))

	_, err = ParsePatternSet([]byte(`{"fieldPatterns":["x"]}`))
	assert.Error(t, err)

	_, err = NewFilter(PatternSet{Version: "bad", FieldPatterns: []string{"("}})
	assert.Error(t, err)
}
