package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/creatilink/marketplace-backend/internal/models"
	"github.com/creatilink/marketplace-backend/internal/repository"
)

// SeedService наполняет базу демонстрационными данными для разработки.
type SeedService struct {
	users    *repository.UserRepository
	projects *repository.ProjectRepository
}

// NewSeedService создаёт сервис генерации демо-данных.
func NewSeedService(users *repository.UserRepository, projects *repository.ProjectRepository) *SeedService {
	return &SeedService{users: users, projects: projects}
}

type seedUser struct {
	fullName string
	email    string
	role     string
	upiID    *string
}

// SeedAccount — созданный или уже существующий демо-аккаунт.
type SeedAccount struct {
	User     *models.User
	Password string
}

const seedPassword = "Password123"

// SeedData создаёт администратора, демо-заказчика, демо-исполнителей
// и несколько открытых проектов. Повторный запуск — no-op по
// существующим email.
func (s *SeedService) SeedData(ctx context.Context) ([]SeedAccount, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("seed service: hash password: %w", err)
	}

	upi1 := "anna.designer@upi"
	upi2 := "pavel.dev@upi"
	seedUsers := []seedUser{
		{fullName: "Администратор платформы", email: "admin@creatilink.dev", role: models.RoleAdmin},
		{fullName: "Иван Заказчиков", email: "customer@creatilink.dev", role: models.RoleCustomer},
		{fullName: "Анна Дизайнерова", email: "anna@creatilink.dev", role: models.RoleCreator, upiID: &upi1},
		{fullName: "Павел Разработчиков", email: "pavel@creatilink.dev", role: models.RoleCreator, upiID: &upi2},
	}

	accounts := make([]SeedAccount, 0, len(seedUsers))
	var customer *models.User
	for _, su := range seedUsers {
		user := &models.User{
			FullName:     su.fullName,
			Email:        su.email,
			PasswordHash: string(passwordHash),
			Role:         su.role,
			UpiID:        su.upiID,
		}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrEmailTaken) {
				existing, err := s.users.GetByEmail(ctx, su.email)
				if err != nil {
					return nil, fmt.Errorf("seed service: load existing user: %w", err)
				}
				user = existing
			} else {
				return nil, fmt.Errorf("seed service: create user: %w", err)
			}
		}
		accounts = append(accounts, SeedAccount{User: user, Password: seedPassword})
		if user.Role == models.RoleCustomer && customer == nil {
			customer = user
		}
	}

	if customer == nil {
		return accounts, nil
	}

	demoProjects := []models.Project{
		{
			Title:       "Логотип и фирменный стиль для кофейни",
			Description: "Нужен логотип, палитра и шаблоны для соцсетей. Примеры работ приветствуются.",
			Category:    "design",
			Budget:      15000,
		},
		{
			Title:       "Монтаж промо-ролика для YouTube",
			Description: "Смонтировать трёхминутный ролик из отснятого материала, цветокоррекция и субтитры.",
			Category:    "video",
			Budget:      25000,
		},
		{
			Title:       "Иллюстрации для детской книги",
			Description: "Десять цветных иллюстраций в акварельном стиле по готовому тексту.",
			Category:    "illustration",
			Budget:      40000,
		},
	}

	existing, err := s.projects.ListByUser(ctx, customer.ID, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("seed service: check projects: %w", err)
	}
	if len(existing) > 0 {
		return accounts, nil
	}

	for i := range demoProjects {
		demoProjects[i].PostedByID = customer.ID
		if _, err := s.projects.Create(ctx, &demoProjects[i]); err != nil {
			return nil, fmt.Errorf("seed service: create project: %w", err)
		}
	}

	return accounts, nil
}
