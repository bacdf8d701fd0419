package app

import (
	"fmt"

	documentHTTP "github.com/KiritoEM/safeo-api/internal/document/http"
	documentRepository "github.com/KiritoEM/safeo-api/internal/document/repository"
	documentUseCase "github.com/KiritoEM/safeo-api/internal/document/usecase"
)

// DocumentRepository returns the document repository instance.
func (c *Container) DocumentRepository() (documentUseCase.DocumentRepository, error) {
	var err error
	c.documentRepoInit.Do(func() {
		c.documentRepo, err = c.initDocumentRepository()
		if err != nil {
			c.initErrors["documentRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["documentRepo"]; exists {
		return nil, storedErr
	}
	return c.documentRepo, nil
}

// DocumentUseCase returns the encrypted document use case.
func (c *Container) DocumentUseCase() (documentUseCase.DocumentUseCase, error) {
	var err error
	c.documentUseCaseInit.Do(func() {
		c.documentUseCase, err = c.initDocumentUseCase()
		if err != nil {
			c.initErrors["documentUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["documentUseCase"]; exists {
		return nil, storedErr
	}
	return c.documentUseCase, nil
}

// DocumentHandler returns the HTTP handler for the document endpoints.
func (c *Container) DocumentHandler() (*documentHTTP.DocumentHandler, error) {
	var err error
	c.documentHandlerInit.Do(func() {
		var useCase documentUseCase.DocumentUseCase
		useCase, err = c.DocumentUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get document use case for document handler: %w", err)
			c.initErrors["documentHandler"] = err
			return
		}
		c.documentHandler = documentHTTP.NewDocumentHandler(useCase, c.config.MaxUploadSize, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["documentHandler"]; exists {
		return nil, storedErr
	}
	return c.documentHandler, nil
}

func (c *Container) initDocumentRepository() (documentUseCase.DocumentRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for document repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return documentRepository.NewMySQLDocumentRepository(db), nil
	case "postgres":
		return documentRepository.NewPostgreSQLDocumentRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initDocumentUseCase() (documentUseCase.DocumentUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for document use case: %w", err)
	}
	documentRepo, err := c.DocumentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get document repository for document use case: %w", err)
	}
	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for document use case: %w", err)
	}
	store, err := c.ObjectStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get object store for document use case: %w", err)
	}
	cleanup, err := c.OutboxUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox use case for document use case: %w", err)
	}
	keyManager, err := c.KeyManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get key manager for document use case: %w", err)
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for document use case: %w", err)
	}

	useCase := documentUseCase.NewDocumentUseCase(
		txManager,
		documentRepo,
		userRepo,
		store,
		cleanup,
		keyManager,
		c.AEADManager(),
		c.config.MaxUploadSize,
		c.Logger(),
	)
	return documentUseCase.NewDocumentUseCaseWithMetrics(useCase, businessMetrics), nil
}
