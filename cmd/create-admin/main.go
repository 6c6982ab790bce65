package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"mailbridge/backend/internal/auth"
	"mailbridge/backend/internal/config"
	"mailbridge/backend/internal/domain"
	"mailbridge/backend/internal/storage"
	"mailbridge/backend/internal/storage/memory"
	sqlstore "mailbridge/backend/internal/storage/sql"
)

// create-admin 在数据库中创建一个管理员账户。
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: create-admin <email> <password> [username]")
		os.Exit(1)
	}

	email := os.Args[1]
	password := os.Args[2]
	username := ""
	if len(os.Args) >= 4 {
		username = os.Args[3]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var store storage.Store
	if cfg.Database.Type != "" {
		sqlStore, err := sqlstore.NewStore(
			cfg.Database.Type,
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			fmt.Printf("Failed to initialize database: %v\n", err)
			os.Exit(1)
		}
		store = sqlStore
	} else {
		fmt.Println("Warning: no database configured, user will only exist in memory")
		store = memory.NewStore()
	}
	defer store.Close()

	if !auth.ValidateEmail(email) {
		fmt.Println("Invalid email format")
		os.Exit(1)
	}

	if err := auth.ValidatePassword(password); err != nil {
		fmt.Printf("Invalid password: %v\n", err)
		os.Exit(1)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		fmt.Printf("Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: hashedPassword,
		Role:         domain.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := store.CreateUser(user); err != nil {
		fmt.Printf("Failed to create admin user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Admin user created: %s (%s)\n", user.Email, user.ID)
}
