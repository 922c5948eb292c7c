package course

// Lesson types
const (
	LessonVideo   = "Video"
	LessonArticle = "Article"
	LessonQuiz    = "Quiz"
)

// Module represents a section of a course holding ordered lessons
type Module struct {
	Title   string   `json:"title"`
	Order   int      `json:"order"`
	Lessons []Lesson `json:"lessons"`
}

// Lesson is a single unit of content inside a module
type Lesson struct {
	Title    string `json:"title"`
	Type     string `json:"type"`    // Video, Article, Quiz
	Content  string `json:"content"` // URL or body depending on Type
	Duration int    `json:"duration"`
	Order    int    `json:"order"`
}

// Chapter is the flat content layout used by courses authored before modules existed
type Chapter struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoURL    string `json:"videoUrl"`
	Duration    string `json:"duration"`
	Order       int    `json:"order"`
}

// ValidLessonType reports whether t is one of the supported lesson types
func ValidLessonType(t string) bool {
	switch t {
	case LessonVideo, LessonArticle, LessonQuiz:
		return true
	}
	return false
}
