package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"jan-server/services/conversation-api/internal/domain/conversation"
	"jan-server/services/conversation-api/internal/infrastructure/database"
	"jan-server/services/conversation-api/internal/infrastructure/database/repository/conversationrepo"
	"jan-server/services/conversation-api/internal/infrastructure/database/transaction"
	"jan-server/services/conversation-api/internal/infrastructure/logger"
)

type storeOptions struct {
	databaseURL string
	tablePrefix string
	logLevel    string
}

func storeOptionsFromFlags(cmd *cobra.Command) (storeOptions, error) {
	databaseURL, _ := cmd.Flags().GetString("database-url")
	tablePrefix, _ := cmd.Flags().GetString("table-prefix")
	logLevel, _ := cmd.Flags().GetString("log-level")
	if strings.TrimSpace(databaseURL) == "" {
		return storeOptions{}, fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	return storeOptions{
		databaseURL: databaseURL,
		tablePrefix: tablePrefix,
		logLevel:    logLevel,
	}, nil
}

func (o storeOptions) schemaName() string {
	return strings.TrimSuffix(o.tablePrefix, ".")
}

func openDatabase(cmd *cobra.Command) (*gorm.DB, storeOptions, error) {
	opts, err := storeOptionsFromFlags(cmd)
	if err != nil {
		return nil, opts, err
	}
	if _, err := logger.NewWithWriter(cmd.ErrOrStderr(), opts.logLevel, "console"); err != nil {
		return nil, opts, fmt.Errorf("configure logger: %w", err)
	}

	level := gormlogger.Silent
	if strings.EqualFold(opts.logLevel, "debug") {
		level = gormlogger.Info
	}
	db, err := database.Connect(database.Config{
		DatabaseURL: opts.databaseURL,
		TablePrefix: opts.tablePrefix,
		MaxIdle:     1,
		MaxOpen:     2,
		LogLevel:    level,
	})
	if err != nil {
		return nil, opts, fmt.Errorf("connect database: %w", err)
	}
	return db, opts, nil
}

// openService wires the conversation service straight onto the database,
// without the HTTP layer.
func openService(cmd *cobra.Command) (*conversation.ConversationService, func(), error) {
	db, _, err := openDatabase(cmd)
	if err != nil {
		return nil, nil, err
	}
	txDB := transaction.NewDatabase(db)
	participants := conversationrepo.NewParticipantGormRepository(txDB)
	svc := conversation.NewConversationService(
		conversationrepo.NewConversationGormRepository(txDB),
		conversationrepo.NewMessageGormRepository(txDB),
		participants,
		conversation.NewParticipantGuard(participants),
		nil,
	)
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return svc, closeFn, nil
}
