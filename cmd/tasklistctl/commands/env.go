package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/benvon/tasklist/internal/config"
	"github.com/benvon/tasklist/internal/database"
	"github.com/benvon/tasklist/internal/logger"
	"github.com/benvon/tasklist/internal/pipeline"
	"github.com/benvon/tasklist/internal/services/todos"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// env is what a command needs to work on the database
type env struct {
	cfg    *config.Config
	db     *database.DB
	logger *zap.Logger
}

func newEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := zap.NewNop()
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		if log, err = logger.NewDevelopmentLogger(true); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &env{cfg: cfg, db: db, logger: log}, nil
}

func (e *env) close() {
	if err := e.db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
	_ = logger.Sync(e.logger)
}

// resolveUser accepts a user id or an email address
func (e *env) resolveUser(ctx context.Context, ref string) (uuid.UUID, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return uuid.Nil, fmt.Errorf("--user is required")
	}
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}

	user, err := database.NewUserRepository(e.db).GetByEmail(ctx, ref)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("no user with email %s", ref)
		}
		return uuid.Nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return user.ID, nil
}

// openStore loads the user's todos the same way the API does
func (e *env) openStore(ctx context.Context, userRef string, opts ...todos.Option) (*todos.Store, error) {
	userID, err := e.resolveUser(ctx, userRef)
	if err != nil {
		return nil, err
	}

	repo := database.NewTodoRepository(e.db)
	repo.SetLogger(e.logger)
	locale, err := language.Parse(e.cfg.CollationLocale)
	if err != nil {
		locale = pipeline.DefaultLocale
	}
	opts = append([]todos.Option{
		todos.WithRemoteTimeout(e.cfg.RemoteTimeout),
		todos.WithPipeline(pipeline.New(locale)),
	}, opts...)
	store := todos.NewStore(repo, userID, e.logger, opts...)
	if err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load todos: %w", err)
	}
	return store, nil
}
