package app

import (
	"fmt"

	userHTTP "github.com/KiritoEM/safeo-api/internal/user/http"
	userUseCase "github.com/KiritoEM/safeo-api/internal/user/usecase"
)

// UserUseCase returns the account read use case.
func (c *Container) UserUseCase() (userUseCase.UserUseCase, error) {
	var err error
	c.userUseCaseInit.Do(func() {
		c.userUseCase, err = c.initUserUseCase()
		if err != nil {
			c.initErrors["userUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userUseCase"]; exists {
		return nil, storedErr
	}
	return c.userUseCase, nil
}

// UserHandler returns the HTTP handler for the account endpoints.
func (c *Container) UserHandler() (*userHTTP.UserHandler, error) {
	var err error
	c.userHandlerInit.Do(func() {
		var useCase userUseCase.UserUseCase
		useCase, err = c.UserUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get user use case for user handler: %w", err)
			c.initErrors["userHandler"] = err
			return
		}
		c.userHandler = userHTTP.NewUserHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userHandler"]; exists {
		return nil, storedErr
	}
	return c.userHandler, nil
}

func (c *Container) initUserUseCase() (userUseCase.UserUseCase, error) {
	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for user use case: %w", err)
	}
	activityRepo, err := c.ActivityLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get activity log repository for user use case: %w", err)
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for user use case: %w", err)
	}

	useCase := userUseCase.NewUserUseCase(userRepo, activityRepo, c.Logger())
	return userUseCase.NewUserUseCaseWithMetrics(useCase, businessMetrics), nil
}
