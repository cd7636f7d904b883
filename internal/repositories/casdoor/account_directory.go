package casdoor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/quiz-platform/quiz-service/internal/models"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// Account is an identity-provider account as seen by this service. It is
// not a local user; the auth middleware resolves it to one by email.
type Account struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	Email       string          `json:"email"`
	AvatarURL   string          `json:"avatar_url"`
	Role        models.UserRole `json:"role"`
}

// AccountDirectory wraps the Casdoor client with a Redis-backed lookup
// cache. A nil Redis client disables caching; lookups still work.
type AccountDirectory struct {
	client *casdoorsdk.Client
	redis  *redis.Client
	config CasdoorConfig

	// Cache settings
	cachePrefix string
	cacheTTL    time.Duration
}

func NewAccountDirectory(config CasdoorConfig, redisClient *redis.Client) *AccountDirectory {
	// Initialize Casdoor client
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	return &AccountDirectory{
		client:      client,
		redis:       redisClient,
		config:      config,
		cachePrefix: "account:",
		cacheTTL:    15 * time.Minute, // Cache for 15 minutes
	}
}

// ParseToken validates a bearer token and returns its claims.
func (d *AccountDirectory) ParseToken(token string) (*casdoorsdk.Claims, error) {
	claims, err := d.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claims, nil
}

// ===== CACHE METHODS =====

// getCacheKey generates cache key for account data
func (d *AccountDirectory) getCacheKey(key string) string {
	return fmt.Sprintf("%s%s", d.cachePrefix, key)
}

// getAccountFromCache retrieves account from cache
func (d *AccountDirectory) getAccountFromCache(ctx context.Context, key string) (*Account, error) {
	if d.redis == nil {
		return nil, nil // Cache not available
	}

	cacheKey := d.getCacheKey(key)
	data, err := d.redis.Get(ctx, cacheKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Not found in cache
		}
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	var account Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached account: %w", err)
	}

	return &account, nil
}

// setAccountCache stores account in cache
func (d *AccountDirectory) setAccountCache(ctx context.Context, key string, account *Account) error {
	if d.redis == nil {
		return nil // Cache not available
	}

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account for cache: %w", err)
	}

	cacheKey := d.getCacheKey(key)
	return d.redis.Set(ctx, cacheKey, data, d.cacheTTL).Err()
}

// ===== CONVERSION METHODS =====

// convertCasdoorUser converts a Casdoor user to an Account
func (d *AccountDirectory) convertCasdoorUser(casdoorUser *casdoorsdk.User) *Account {
	if casdoorUser == nil {
		return nil
	}

	return &Account{
		ID:          casdoorUser.Id,
		Name:        casdoorUser.Name,
		DisplayName: casdoorUser.DisplayName,
		Email:       casdoorUser.Email,
		AvatarURL:   casdoorUser.Avatar,
		Role:        d.convertCasdoorRoles(casdoorUser),
	}
}

func (d *AccountDirectory) convertCasdoorRoles(casdoorUser *casdoorsdk.User) models.UserRole {
	var roles []models.UserRole
	isExist := make(map[models.UserRole]bool)
	for _, casdoorRole := range casdoorUser.Roles {
		mappedRole := d.mapSingleCasdoorRole(casdoorRole.Name)
		if !isExist[mappedRole] {
			roles = append(roles, mappedRole)
			isExist[mappedRole] = true
		}
	}

	// if contain admin, only keep admin
	if slices.Contains(roles, models.RoleAdmin) || casdoorUser.IsAdmin {
		return models.RoleAdmin
	}

	if len(roles) == 0 {
		return models.RoleUser // Default role
	}
	return roles[0] // Return the first role as primary
}

func (d *AccountDirectory) mapSingleCasdoorRole(casdoorType string) models.UserRole {
	switch strings.ToLower(casdoorType) {
	case "admin", "administrator":
		return models.RoleAdmin
	case "moderator":
		return models.RoleModerator
	default:
		return models.RoleUser // Default role
	}
}

// ===== LOOKUP OPERATIONS =====

// GetByEmail retrieves an account by email
func (d *AccountDirectory) GetByEmail(ctx context.Context, email string) (*Account, error) {
	// Try cache first
	cacheKey := fmt.Sprintf("email:%s", email)
	if cached, err := d.getAccountFromCache(ctx, cacheKey); err == nil && cached != nil {
		return cached, nil
	}

	// Get from Casdoor by email
	casdoorUser, err := d.client.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email from Casdoor: %w", err)
	}

	if casdoorUser == nil {
		return nil, fmt.Errorf("account not found with email %s", email)
	}

	account := d.convertCasdoorUser(casdoorUser)
	if account == nil {
		return nil, fmt.Errorf("failed to convert Casdoor user")
	}

	// Cache the result
	d.setAccountCache(ctx, cacheKey, account)
	d.setAccountCache(ctx, fmt.Sprintf("name:%s", account.Name), account)

	return account, nil
}

// GetByName retrieves an account by its Casdoor username
func (d *AccountDirectory) GetByName(ctx context.Context, name string) (*Account, error) {
	// Try cache first
	cacheKey := fmt.Sprintf("name:%s", name)
	if cached, err := d.getAccountFromCache(ctx, cacheKey); err == nil && cached != nil {
		return cached, nil
	}

	casdoorUser, err := d.client.GetUser(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get account from Casdoor: %w", err)
	}

	if casdoorUser == nil {
		return nil, fmt.Errorf("account not found with name %s", name)
	}

	account := d.convertCasdoorUser(casdoorUser)
	if account == nil {
		return nil, fmt.Errorf("failed to convert Casdoor user")
	}

	// Cache the result
	d.setAccountCache(ctx, cacheKey, account)
	if account.Email != "" {
		d.setAccountCache(ctx, fmt.Sprintf("email:%s", account.Email), account)
	}

	return account, nil
}

// ExistsByEmail checks if an account exists by email
func (d *AccountDirectory) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	// Check cache first
	cacheKey := d.getCacheKey(fmt.Sprintf("exists:email:%s", email))
	if d.redis != nil {
		exists, err := d.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			return exists == "true", nil
		}
	}

	// Check with Casdoor
	casdoorUser, err := d.client.GetUserByEmail(email)
	if err != nil {
		return false, fmt.Errorf("failed to check account existence by email: %w", err)
	}

	exists := casdoorUser != nil

	// Cache the result for a shorter time
	if d.redis != nil {
		d.redis.Set(ctx, cacheKey, fmt.Sprintf("%t", exists), 1*time.Minute)
	}

	return exists, nil
}
