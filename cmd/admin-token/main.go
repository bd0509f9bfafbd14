package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	pkgAuth "github.com/angelmondragon/humidityzone-backend/pkg/auth"
	"github.com/angelmondragon/humidityzone-backend/pkg/auth/session"
	"github.com/angelmondragon/humidityzone-backend/pkg/config"
	"github.com/angelmondragon/humidityzone-backend/pkg/enums"
	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
	"github.com/angelmondragon/humidityzone-backend/pkg/redis"
)

// admin-token mints operator tokens for the back-office order views and
// registers them in Redis; -revoke deletes a registered token id.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "admin-token"})

	_ = godotenv.Load()

	subject := flag.String("subject", "", "operator identity recorded in the token (e.g. an email)")
	roleFlag := flag.String("role", string(enums.OperatorRoleViewer), "operator role: admin|viewer")
	revoke := flag.String("revoke", "", "token id (jti) to revoke instead of minting")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "admin-token",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	manager, err := session.NewManager(redisClient)
	requireResource(ctx, logg, "session manager", err)

	if *revoke != "" {
		if err := manager.Revoke(ctx, *revoke); err != nil {
			fmt.Fprintf(os.Stderr, "revoke failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("revoked token:", *revoke)
		return
	}

	role, err := enums.ParseOperatorRole(*roleFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -role: %v\n", err)
		os.Exit(1)
	}
	if *subject == "" {
		fmt.Fprintln(os.Stderr, "missing -subject")
		os.Exit(1)
	}

	jti := uuid.NewString()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		Subject: *subject,
		Role:    role,
		JTI:     jti,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint failed: %v\n", err)
		os.Exit(1)
	}
	if err := manager.Register(ctx, jti, *subject, pkgAuth.TTL(cfg.JWT)); err != nil {
		fmt.Fprintf(os.Stderr, "register session failed: %v\n", err)
		os.Exit(1)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{"subject": *subject, "role": role.String(), "jti": jti}), "operator token issued")
	fmt.Println(token)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
