package progress

import (
	"context"
	"time"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository определяет операции над студентами.
type StudentRepository interface {
	// GetByID возвращает студента.
	// Возвращает ErrStudentNotFound, если студент не найден.
	GetByID(ctx context.Context, id shared.StudentID) (*Student, error)

	// List возвращает страницу студентов, упорядоченных по email.
	List(ctx context.Context, page shared.Pagination) ([]Student, error)

	// All возвращает полный список студентов, упорядоченный по email.
	All(ctx context.Context) ([]Student, error)

	// Upsert создаёт или обновляет студента.
	Upsert(ctx context.Context, student Student) error

	// SetCurrentSemester перезаписывает счётчик семестров.
	SetCurrentSemester(ctx context.Context, id shared.StudentID, semester int) error
}

// ProgressRepository определяет операции над историей курсов студента.
type ProgressRepository interface {
	// GetProgress возвращает все записи студента с нормализованными статусами.
	GetProgress(ctx context.Context, id shared.StudentID) ([]CourseProgress, error)

	// SetStatus создаёт или обновляет запись курса.
	SetStatus(ctx context.Context, row CourseProgress) error

	// ResetProgress удаляет все записи студента и обнуляет счётчик в одной транзакции.
	// Возвращает количество удалённых записей.
	ResetProgress(ctx context.Context, id shared.StudentID) (int64, error)

	// ApplyAdvancement атомарно увеличивает счётчик студента на 1 и переводит
	// перечисленные курсы из planned/enrolled в passed с отметкой семестра.
	// Возвращает новое значение счётчика и число переведённых курсов.
	ApplyAdvancement(ctx context.Context, adv Advancement) (newSemester int, promoted int, err error)
}

// TermRepository управляет глобальным семестром.
type TermRepository interface {
	// Current возвращает текущий глобальный семестр.
	// Возвращает ErrTermNotInitialized, если управляющая запись отсутствует.
	Current(ctx context.Context) (int, error)

	// Advance атомарно увеличивает глобальный семестр на 1 и возвращает новое значение.
	Advance(ctx context.Context) (int, error)

	// Set перезаписывает глобальный семестр.
	Set(ctx context.Context, term int) error
}

// Locker выдаёт эксклюзивную блокировку прогрессии. Продвижение и пересчёт
// берут одну и ту же блокировку и никогда не выполняются одновременно.
type Locker interface {
	// Acquire пытается взять блокировку без ожидания. Возвращает
	// ErrAdvancementInProgress, если блокировка занята.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// ProgressionLockKey - ключ общей блокировки продвижения и пересчёта.
const ProgressionLockKey = "progression"

// CourseSource - минимальный контракт чтения записей курсов, нужный командам.
type CourseSource interface {
	GetCourses(ctx context.Context, ids []curriculum.CourseID) ([]curriculum.Course, error)
}
