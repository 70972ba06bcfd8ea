package services

import (
	"fmt"

	"github.com/Dosada05/club-scheduler/config"
	"github.com/Dosada05/club-scheduler/models"
)

type SportService interface {
	List() []models.Sport
	Get(name string) (models.Sport, error)
}

type sportService struct {
	catalog *config.SportCatalog
}

func NewSportService(catalog *config.SportCatalog) SportService {
	return &sportService{catalog: catalog}
}

func (s *sportService) List() []models.Sport {
	return s.catalog.All()
}

func (s *sportService) Get(name string) (models.Sport, error) {
	sport, ok := s.catalog.Get(name)
	if !ok {
		return models.Sport{}, fmt.Errorf("%w: %q", ErrUnknownSport, name)
	}
	return sport, nil
}
