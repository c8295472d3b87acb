package tableau

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// tokenLifetime bounds the validity of the sign-in JWT. Tableau rejects anything above 10 minutes.
const tokenLifetime = 5 * time.Minute

// contentReadScope is the only scope needed to list and describe content.
const contentReadScope = "tableau:content:read"

// Credentials identify a connected app and the user it acts for.
type Credentials struct {
	ClientID    string `json:"client_id" yaml:"client_id" mapstructure:"client_id"`
	SecretID    string `json:"secret_id" yaml:"secret_id" mapstructure:"secret_id"`
	SecretValue string `json:"-" yaml:"secret_value" mapstructure:"secret_value"`
	Username    string `json:"username" yaml:"username" mapstructure:"username"`
	SiteName    string `json:"site_name" yaml:"site_name" mapstructure:"site_name"`
}

// Validate reports every missing field.
func (c Credentials) Validate() error {
	fields := []struct{ name, value string }{
		{"client_id", c.ClientID},
		{"secret_id", c.SecretID},
		{"secret_value", c.SecretValue},
		{"username", c.Username},
	}
	var errs []error
	for _, f := range fields {
		if f.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", f.name))
		}
	}
	return errors.Join(errs...)
}

// signJWT builds the HS256 connected-app token exchanged at sign-in.
func (c Credentials) signJWT(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss": c.ClientID,
		"exp": now.Add(tokenLifetime).Unix(),
		"jti": uuid.NewString(),
		"aud": "tableau",
		"sub": c.Username,
		"scp": []string{contentReadScope},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = c.SecretID
	token.Header["iss"] = c.ClientID

	signed, err := token.SignedString([]byte(c.SecretValue))
	if err != nil {
		return "", fmt.Errorf("sign connected app token: %w", err)
	}
	return signed, nil
}
