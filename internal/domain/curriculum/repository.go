package curriculum

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Контракт внешнего хранилища каталога. Реализации находятся в
// infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет чтение каталога и загрузку карьер.
type Repository interface {
	// GetCatalog возвращает снимок курсов карьеры вместе с пререквизитами.
	// Возвращает ErrCareerNotFound, если карьеры нет.
	GetCatalog(ctx context.Context, careerID string) (*Catalog, error)

	// GetCourses возвращает записи курсов по идентификаторам, независимо от карьеры.
	// Неизвестные идентификаторы пропускаются.
	GetCourses(ctx context.Context, ids []CourseID) ([]Course, error)

	// GetPrerequisites возвращает пререквизиты одного курса.
	GetPrerequisites(ctx context.Context, courseID CourseID) ([]CourseID, error)

	// ImportCareer создаёт или обновляет карьеру, её курсы, связи и пререквизиты.
	// Возвращает идентификатор карьеры.
	ImportCareer(ctx context.Context, data CareerImport) (string, error)
}

// CatalogCache - необязательный кеш снимков каталога.
type CatalogCache interface {
	// Get возвращает снимок из кеша или ошибку промаха.
	Get(ctx context.Context, careerID string) (*Catalog, error)

	// Set сохраняет снимок.
	Set(ctx context.Context, catalog *Catalog) error

	// Invalidate удаляет снимок карьеры.
	Invalidate(ctx context.Context, careerID string) error
}
