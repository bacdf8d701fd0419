package app

import (
	"fmt"

	outboxRepository "github.com/KiritoEM/safeo-api/internal/outbox/repository"
	outboxUseCase "github.com/KiritoEM/safeo-api/internal/outbox/usecase"
)

// OutboxRepository returns the outbox event repository instance.
func (c *Container) OutboxRepository() (outboxUseCase.OutboxEventRepository, error) {
	var err error
	c.outboxRepoInit.Do(func() {
		c.outboxRepo, err = c.initOutboxRepository()
		if err != nil {
			c.initErrors["outboxRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// OutboxUseCase returns the payload cleanup worker. It also schedules the
// deletions the document use case cannot finish inline.
func (c *Container) OutboxUseCase() (*outboxUseCase.OutboxUseCase, error) {
	var err error
	c.outboxUseCaseInit.Do(func() {
		c.outboxUseCase, err = c.initOutboxUseCase()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, storedErr
	}
	return c.outboxUseCase, nil
}

func (c *Container) initOutboxRepository() (outboxUseCase.OutboxEventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return outboxRepository.NewMySQLOutboxEventRepository(db), nil
	case "postgres":
		return outboxRepository.NewPostgreSQLOutboxEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initOutboxUseCase() (*outboxUseCase.OutboxUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
	}
	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
	}
	store, err := c.ObjectStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get object store for outbox use case: %w", err)
	}

	cfg := outboxUseCase.Config{
		Interval:      c.config.CleanupInterval,
		BatchSize:     c.config.CleanupBatchSize,
		MaxRetries:    c.config.CleanupMaxRetries,
		RetryInterval: c.config.CleanupRetryInterval,
	}
	processor := outboxUseCase.NewPayloadDeletionProcessor(store, c.Logger())
	return outboxUseCase.NewOutboxUseCase(cfg, txManager, outboxRepo, processor, c.Logger()), nil
}
