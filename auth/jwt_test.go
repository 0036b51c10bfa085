package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "featureinfo-test-secret"

var testAdmin = Principal{ID: "ops-1", Username: "operator", Role: RoleAdmin}

func signClaims(t *testing.T, method jwt.SigningMethod, key any, claims *Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return signed
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	if _, err := GenerateToken(testAdmin, "", 1); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestTokenCarriesPrincipal(t *testing.T) {
	reader := Principal{ID: "dash-7", Username: "dashboard", Role: RoleReader}

	token, err := GenerateToken(reader, testSecret, 2)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	claims, err := ValidateToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateToken() failed: %v", err)
	}

	if got := claims.Principal(); got != reader {
		t.Errorf("Principal() = %+v, want %+v", got, reader)
	}
	if claims.Subject != reader.ID || claims.Issuer != TokenIssuer {
		t.Errorf("unexpected registered claims: subject %q issuer %q", claims.Subject, claims.Issuer)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now().Add(time.Hour)) {
		t.Errorf("expected expiry about two hours ahead, got %v", claims.ExpiresAt)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	valid, err := GenerateToken(testAdmin, testSecret, 1)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	expired, err := GenerateToken(testAdmin, testSecret, -1)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	inAnHour := jwt.NewNumericDate(time.Now().Add(time.Hour))
	foreign := signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
		UserID:           testAdmin.ID,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else", ExpiresAt: inAnHour},
	})
	noExpiry := signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
		UserID:           testAdmin.ID,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: TokenIssuer},
	})
	unsigned := signClaims(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, &Claims{
		UserID:           testAdmin.ID,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: TokenIssuer, ExpiresAt: inAnHour},
	})

	tests := []struct {
		name   string
		token  string
		secret string
		want   error
	}{
		{"malformed", "not.a.token", testSecret, ErrInvalidToken},
		{"empty token", "", testSecret, ErrInvalidToken},
		{"wrong secret", valid, "other-secret", ErrInvalidToken},
		{"missing secret", valid, "", ErrMissingSecret},
		{"expired", expired, testSecret, ErrInvalidToken},
		{"foreign issuer", foreign, testSecret, ErrInvalidToken},
		{"no expiry", noExpiry, testSecret, ErrInvalidToken},
		{"alg none", unsigned, testSecret, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			if !errors.Is(err, tt.want) {
				t.Errorf("ValidateToken() error = %v, want %v", err, tt.want)
			}
			if claims != nil {
				t.Errorf("expected no claims, got %+v", claims)
			}
		})
	}
}

func TestCheckAPIKey(t *testing.T) {
	tests := []struct {
		name      string
		presented string
		expected  string
		wantErr   bool
	}{
		{"matching key", "s3cret", "s3cret", false},
		{"wrong key", "guess", "s3cret", true},
		{"prefix of key", "s3c", "s3cret", true},
		{"missing key", "", "s3cret", true},
		{"unconfigured key", "s3cret", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAPIKey(tt.presented, tt.expected)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckAPIKey() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    AuthMode
		wantErr bool
	}{
		{"", AuthModeNone, false},
		{"none", AuthModeNone, false},
		{"APIKEY", AuthModeAPIKey, false},
		{" jwt ", AuthModeJWT, false},
		{"rbac", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}
