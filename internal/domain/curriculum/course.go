// Package curriculum содержит доменную модель учебного плана (карьеры):
// курсы, их пререквизиты и чистые алгоритмы прогрессии студента.
// Это ядро бизнес-логики - здесь нет внешних зависимостей и нет ввода-вывода.
package curriculum

import (
	"math"
	"sort"

	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// CourseID - уникальный идентификатор курса в каталоге.
type CourseID string

// String возвращает строковое представление идентификатора.
func (id CourseID) String() string {
	return string(id)
}

// UnknownSemester - значение, которым заменяется отсутствующий номинальный
// семестр при сортировке. Такие курсы всегда идут последними.
const UnknownSemester = math.MaxInt32

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: COURSE
// ══════════════════════════════════════════════════════════════════════════════

// Course - запись каталога вместе с набором пререквизитов.
type Course struct {
	// ID - уникальный идентификатор курса.
	ID CourseID `json:"id" yaml:"id"`

	// Code - человекочитаемый код (например, "MAT-101"), используется при равенстве семестров.
	Code string `json:"code" yaml:"code"`

	// Title - название курса.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Credits - количество кредитов, неотрицательное.
	Credits int `json:"credits" yaml:"credits"`

	// Semester - номинальный семестр (1..N); 0 означает "неизвестен".
	Semester int `json:"semester" yaml:"semester"`

	// Block, Area, Type - описательные поля каталога, на алгоритмы не влияют.
	Block string `json:"block,omitempty" yaml:"block,omitempty"`
	Area  string `json:"area,omitempty" yaml:"area,omitempty"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`

	// Prerequisites - идентификаторы курсов, которые нужно сдать до этого.
	Prerequisites []CourseID `json:"prerequisites,omitempty" yaml:"prerequisites,omitempty"`
}

// SortSemester возвращает семестр для сортировки с учётом UnknownSemester.
func (c Course) SortSemester() int {
	if c.Semester <= 0 {
		return UnknownSemester
	}
	return c.Semester
}

// Validate проверяет форму записи. Алгоритмы движка предполагают, что
// записи уже проверены на границе хранилища.
func (c Course) Validate() error {
	if c.ID == "" {
		return shared.WrapError("curriculum", "Validate", shared.ErrInvalidInput, "course id is required", nil)
	}
	if c.Code == "" {
		return shared.WrapError("curriculum", "Validate", shared.ErrInvalidInput, "course code is required: "+string(c.ID), nil)
	}
	if c.Credits < 0 {
		return shared.WrapError("curriculum", "Validate", shared.ErrNegativeValue, "course credits cannot be negative: "+string(c.ID), nil)
	}
	return nil
}

// Less задаёт порядок плана: по номинальному семестру, затем по коду.
func Less(a, b Course) bool {
	sa, sb := a.SortSemester(), b.SortSemester()
	if sa != sb {
		return sa < sb
	}
	return a.Code < b.Code
}

// SortCourses сортирует курсы на месте в порядке плана.
func SortCourses(courses []Course) {
	sort.SliceStable(courses, func(i, j int) bool {
		return Less(courses[i], courses[j])
	})
}

// sortedCopy возвращает отсортированную копию, не трогая входной срез.
func sortedCopy(courses []Course) []Course {
	out := make([]Course, len(courses))
	copy(out, courses)
	SortCourses(out)
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// COURSE SET
// ══════════════════════════════════════════════════════════════════════════════

// CourseSet - множество идентификаторов курсов (например, сданные курсы студента).
type CourseSet map[CourseID]struct{}

// NewCourseSet создаёт множество из перечисленных идентификаторов.
func NewCourseSet(ids ...CourseID) CourseSet {
	s := make(CourseSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add добавляет идентификатор.
func (s CourseSet) Add(id CourseID) {
	s[id] = struct{}{}
}

// Has проверяет принадлежность. Безопасен для nil-множества.
func (s CourseSet) Has(id CourseID) bool {
	_, ok := s[id]
	return ok
}

// Len возвращает размер множества.
func (s CourseSet) Len() int {
	return len(s)
}

// IDs возвращает идентификаторы в лексикографическом порядке.
func (s CourseSet) IDs() []CourseID {
	ids := make([]CourseID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG VIEW
// ══════════════════════════════════════════════════════════════════════════════

// Catalog - неизменяемый снимок курсов одной карьеры вместе с пререквизитами.
// Создаётся хранилищем на каждый запрос и внутри вычисления не меняется.
type Catalog struct {
	CareerID   string
	CareerName string
	courses    map[CourseID]Course
}

// NewCatalog строит снимок каталога. При дублировании идентификатора
// побеждает последняя запись.
func NewCatalog(careerID, careerName string, courses []Course) *Catalog {
	m := make(map[CourseID]Course, len(courses))
	for _, c := range courses {
		m[c.ID] = c
	}
	return &Catalog{
		CareerID:   careerID,
		CareerName: careerName,
		courses:    m,
	}
}

// Course возвращает курс по идентификатору.
func (c *Catalog) Course(id CourseID) (Course, bool) {
	if c == nil {
		return Course{}, false
	}
	course, ok := c.courses[id]
	return course, ok
}

// Len возвращает количество курсов в снимке.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.courses)
}

// Courses возвращает все курсы в порядке плана.
func (c *Catalog) Courses() []Course {
	if c == nil {
		return nil
	}
	out := make([]Course, 0, len(c.courses))
	for _, course := range c.courses {
		out = append(out, course)
	}
	SortCourses(out)
	return out
}

// Lookup возвращает записи для известных идентификаторов, пропуская неизвестные.
func (c *Catalog) Lookup(ids []CourseID) []Course {
	out := make([]Course, 0, len(ids))
	for _, id := range ids {
		if course, ok := c.Course(id); ok {
			out = append(out, course)
		}
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// IMPORT SHAPE
// ══════════════════════════════════════════════════════════════════════════════

// CareerImport - данные одной карьеры для загрузки во внешнее хранилище.
type CareerImport struct {
	CareerName string   `json:"career_name" yaml:"career_name"`
	SourceFile string   `json:"source_file,omitempty" yaml:"source_file,omitempty"`
	Courses    []Course `json:"courses" yaml:"courses"`
}

// Validate проверяет каждую запись и уникальность идентификаторов и кодов.
func (ci CareerImport) Validate() error {
	if ci.CareerName == "" {
		return shared.WrapError("curriculum", "Import", shared.ErrInvalidInput, "career name is required", nil)
	}
	ids := make(map[CourseID]struct{}, len(ci.Courses))
	codes := make(map[string]struct{}, len(ci.Courses))
	for _, c := range ci.Courses {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, dup := ids[c.ID]; dup {
			return shared.WrapError("curriculum", "Import", shared.ErrAlreadyExists, "duplicate course id: "+string(c.ID), nil)
		}
		if _, dup := codes[c.Code]; dup {
			return shared.WrapError("curriculum", "Import", shared.ErrAlreadyExists, "duplicate course code: "+c.Code, nil)
		}
		ids[c.ID] = struct{}{}
		codes[c.Code] = struct{}{}
	}
	return nil
}
