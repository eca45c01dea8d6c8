package jwt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"support-chat-backend/internal/identity"
	"support-chat-backend/utils"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt"
)

const refreshKeyPrefix = "refresh:"

func appendRoleChar(token string, role Role) string {
	switch role {
	case RoleUser:
		return token + "1"
	}
	return token
}

func expectedRoleChar(role Role) string {
	switch role {
	case RoleUser:
		return "1"
	}
	return ""
}

func secretFor(role Role) (string, error) {
	secret, ok := RoleSecrets[role]
	if !ok || secret == "" {
		return "", fmt.Errorf("no signing secret configured for role")
	}
	return secret, nil
}

func CreateToken(user User, role Role, validUntil int64) (string, error) {
	secret, err := secretFor(role)
	if err != nil {
		return "", err
	}

	if validUntil == 0 {
		validUntil = time.Now().Add(AccessTokenTTL).Unix()
	}

	claims := jwt.MapClaims{
		"id":    user.Id,
		"email": user.Email,
		"name":  user.Name,
		"orgId": user.OrganizationID,
		"exp":   validUntil,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return appendRoleChar(tokenString, role), nil
}

func CreateTokenWithRefresh(user User, role Role, validUntil int64) (TokenResponse, error) {
	accessToken, err := CreateToken(user, role, validUntil)
	if err != nil {
		return TokenResponse{}, err
	}
	if RedisClient == nil {
		return TokenResponse{}, fmt.Errorf("refresh token store not configured")
	}

	refreshTokenRaw := utils.CreateToken()
	userData, err := json.Marshal(user)
	if err != nil {
		return TokenResponse{}, err
	}

	err = RedisClient.Set(context.Background(), refreshKeyPrefix+refreshTokenRaw, userData, RefreshTokenTTL).Err()
	if err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: appendRoleChar(refreshTokenRaw, role),
	}, nil
}

// ParseToken validates an access token including its trailing role character.
func ParseToken(tokenString string, role Role) (jwt.MapClaims, error) {
	if len(tokenString) == 0 {
		return nil, fmt.Errorf("token string is empty")
	}

	if tokenString[len(tokenString)-1:] != expectedRoleChar(role) {
		return nil, fmt.Errorf("invalid role character in token")
	}
	tokenString = tokenString[:len(tokenString)-1]

	secret, err := secretFor(role)
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %v", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid - unauthorized")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("claims of unauthorized type")
	}

	return claims, nil
}

// OperatorFromToken parses an access token into the operator identity it carries.
func OperatorFromToken(token string) (identity.Operator, error) {
	claims, err := ParseToken(strings.TrimSpace(token), RoleUser)
	if err != nil {
		return identity.Operator{}, err
	}
	return OperatorFromClaims(claims)
}

func OperatorFromClaims(claims jwt.MapClaims) (identity.Operator, error) {
	operatorID, _ := claims["id"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	organizationID, _ := claims["orgId"].(string)

	if operatorID == "" || organizationID == "" {
		return identity.Operator{}, fmt.Errorf("token missing identifiers")
	}

	return identity.Operator{
		OperatorID:     operatorID,
		OrganizationID: organizationID,
		Email:          email,
		Name:           name,
	}, nil
}

func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", fmt.Errorf("missing authorization header")
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", fmt.Errorf("invalid authorization header format")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", fmt.Errorf("empty token")
	}
	return token, nil
}

func RefreshToken(refreshToken string, role Role) (string, error) {
	if len(refreshToken) == 0 {
		return "", fmt.Errorf("refresh token is empty")
	}
	if refreshToken[len(refreshToken)-1:] != expectedRoleChar(role) {
		return "", fmt.Errorf("invalid role character in refresh token")
	}
	if RedisClient == nil {
		return "", fmt.Errorf("refresh token store not configured")
	}
	key := refreshKeyPrefix + refreshToken[:len(refreshToken)-1]

	val, err := RedisClient.Get(context.Background(), key).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("invalid refresh token")
	} else if err != nil {
		return "", err
	}

	var user User
	if err := json.Unmarshal([]byte(val), &user); err != nil {
		return "", fmt.Errorf("invalid token data")
	}

	if err := RedisClient.Expire(context.Background(), key, RefreshTokenTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to update refresh token expiration: %v", err)
	}

	return CreateToken(user, role, 0)
}
