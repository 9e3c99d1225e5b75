// Package errors provides structured error types for the Rill language.
//
// It defines RillError, a unified error type that represents parser and
// runtime errors with rich metadata for display and programmatic handling,
// plus a catalog of known error codes with templated messages.
package errors

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassParse     ErrorClass = "parse"     // Parser/syntax errors
	ClassType      ErrorClass = "type"      // Type mismatches
	ClassArity     ErrorClass = "arity"     // Wrong argument count
	ClassUndefined ErrorClass = "undefined" // Not found/defined
	ClassPath      ErrorClass = "path"      // Cell path resolution failures
	ClassSort      ErrorClass = "sort"      // Sort configuration failures
	ClassEval      ErrorClass = "eval"      // Closure evaluation failures
	ClassIndex     ErrorClass = "index"     // Out of bounds
	ClassFormat    ErrorClass = "format"    // Invalid format/parse
	ClassIO        ErrorClass = "io"        // File operations
	ClassDatabase  ErrorClass = "database"  // DB operations
	ClassState     ErrorClass = "state"     // Invalid state
)

// RillError represents any error from parsing or evaluation.
type RillError struct {
	Class   ErrorClass     `json:"class"`           // Error category
	Code    string         `json:"code"`            // Error code (e.g., "PATH-0001")
	Message string         `json:"message"`         // Human-readable message
	Hints   []string       `json:"hints,omitempty"` // Suggestions for fixing
	Line    int            `json:"line"`            // 1-based line (0 if unknown)
	Column  int            `json:"column"`          // 1-based column (0 if unknown)
	File    string         `json:"file,omitempty"`  // File path (if known)
	Data    map[string]any `json:"data,omitempty"`  // Template variables
}

// Error implements the error interface.
func (e *RillError) Error() string {
	return e.String()
}

// String returns a formatted string representation of the error.
func (e *RillError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for display.
func (e *RillError) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassParse:
		sb.WriteString("Parser error")
	default:
		sb.WriteString("Runtime error")
	}

	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  at: line %d, column %d", e.Line, e.Column))
		}
		sb.WriteString("\n  ")
	} else if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Use: ")
		} else {
			sb.WriteString(" or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// IsRuntimeError returns true if this is a runtime error.
func (e *RillError) IsRuntimeError() bool {
	return e.Class != ClassParse
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Parse errors (PARSE-0xxx)
	// ========================================
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "expected {{.Expected}}, got '{{.Got}}'",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "unexpected token '{{.Token}}'",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "unterminated string",
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "invalid number literal: {{.Literal}}",
	},

	// ========================================
	// Type errors (TYPE-0xxx)
	// ========================================
	"TYPE-0001": {
		Class:    ClassType,
		Template: "{{.Function}} expected {{.Expected}}, got {{.Got}}",
	},
	"TYPE-0002": {
		Class:    ClassType,
		Template: "cannot call {{.Got}} as a function",
		Hints:    []string{"Only functions can be called with parentheses"},
	},
	"TYPE-0003": {
		Class:    ClassType,
		Template: "first argument to `{{.Function}}` must be {{.Expected}}, got {{.Got}}",
	},
	"TYPE-0004": {
		Class:    ClassType,
		Template: "second argument to `{{.Function}}` must be {{.Expected}}, got {{.Got}}",
	},
	"TYPE-0005": {
		Class:    ClassType,
		Template: "index operator not supported: {{.Left}}[{{.Right}}]",
		Hints:    []string{"Arrays can be indexed with integers", "Records can be indexed with strings"},
	},
	"TYPE-0006": {
		Class:    ClassType,
		Template: "unknown operator: {{.Left}} {{.Operator}} {{.Right}}",
	},
	"TYPE-0007": {
		Class:    ClassType,
		Template: "argument to `{{.Function}}` not supported, got {{.Got}}",
	},

	// ========================================
	// Arity errors (ARITY-0xxx)
	// ========================================
	"ARITY-0001": {
		Class:    ClassArity,
		Template: "wrong number of arguments to `{{.Function}}`. got={{.Got}}, want={{.Want}}",
	},
	"ARITY-0002": {
		Class:    ClassArity,
		Template: "`{{.Function}}` expects {{.Min}}-{{.Max}} arguments, got {{.Got}}",
	},

	// ========================================
	// Undefined errors (UNDEF-0xxx)
	// ========================================
	"UNDEF-0001": {
		Class:    ClassUndefined,
		Template: "identifier not found: {{.Name}}",
		// Hint "Did you mean `X`?" added dynamically by fuzzy matching
	},

	// ========================================
	// Cell path errors (PATH-0xxx)
	// ========================================
	"PATH-0001": {
		Class:    ClassPath,
		Template: "cannot find column '{{.Name}}'",
	},
	"PATH-0002": {
		Class:    ClassPath,
		Template: "index {{.Index}} is beyond the end (max index {{.MaxIndex}})",
	},
	"PATH-0003": {
		Class:    ClassPath,
		Template: "cannot descend into {{.Got}} with {{.Member}}",
	},
	"PATH-0004": {
		Class:    ClassPath,
		Template: "cannot index into empty content",
	},
	"PATH-0005": {
		Class:    ClassPath,
		Template: "empty cell path",
	},

	// ========================================
	// Sort errors (SORT-0xxx)
	// ========================================
	"SORT-0001": {
		Class:    ClassSort,
		Template: "expected name",
		Hints:    []string{"sorting table data requires at least one column name"},
	},
	"SORT-0002": {
		Class:    ClassSort,
		Template: "cannot find column '{{.Column}}'",
	},

	// ========================================
	// Index errors (INDEX-0xxx)
	// ========================================
	"INDEX-0001": {
		Class:    ClassIndex,
		Template: "index {{.Index}} out of range (length {{.Length}})",
	},
	"INDEX-0002": {
		Class:    ClassIndex,
		Template: "key '{{.Key}}' not found in record",
	},

	// ========================================
	// Format errors (FMT-0xxx)
	// ========================================
	"FMT-0001": {
		Class:    ClassFormat,
		Template: "invalid {{.Format}}: {{.GoError}}",
	},
	"FMT-0002": {
		Class:    ClassFormat,
		Template: "could not load workbook: {{.GoError}}",
	},
	"FMT-0003": {
		Class:    ClassFormat,
		Template: "could not load sheet '{{.Sheet}}'",
	},
	"FMT-0004": {
		Class:    ClassFormat,
		Template: "could not parse date '{{.Value}}': {{.GoError}}",
	},

	// ========================================
	// I/O errors (IO-0xxx)
	// ========================================
	"IO-0001": {
		Class:    ClassIO,
		Template: "failed to read file '{{.Path}}': {{.GoError}}",
	},

	// ========================================
	// Database errors (DB-0xxx)
	// ========================================
	"DB-0001": {
		Class:    ClassDatabase,
		Template: "failed to open database '{{.Path}}': {{.GoError}}",
	},
	"DB-0002": {
		Class:    ClassDatabase,
		Template: "query failed: {{.GoError}}",
	},
	"DB-0003": {
		Class:    ClassDatabase,
		Template: "failed to scan row: {{.GoError}}",
	},

	// ========================================
	// Eval errors (EVAL-0xxx)
	// ========================================
	"EVAL-0001": {
		Class:    ClassEval,
		Template: "closure evaluation failed: {{.Cause}}",
	},

	// ========================================
	// State errors (STATE-0xxx)
	// ========================================
	"STATE-0001": {
		Class:    ClassState,
		Template: "cannot reassign protected variable '{{.Name}}'",
	},
}

// New creates a RillError from the catalog.
// If the code is not in the catalog, a generic error is produced.
func New(code string, data map[string]any) *RillError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := fmt.Sprintf("unknown error code: %s", code)
		return &RillError{
			Class:   ClassType,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &RillError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates a RillError with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *RillError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// NewSimple creates a simple error without using the catalog.
func NewSimple(class ErrorClass, message string) *RillError {
	return &RillError{
		Class:   class,
		Message: message,
	}
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// TypeName returns a lowercase type name for error messages.
// Converts "STRING" to "string", "ARRAY" to "array", etc.
func TypeName(t string) string {
	return strings.ToLower(t)
}

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}

// FindClosestMatch finds the closest match to the given string from candidates.
// Returns the best match if the distance is within the threshold, otherwise
// an empty string. The threshold scales with the length of the input.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	inputLower := strings.ToLower(input)

	var bestMatch string
	bestDistance := -1

	for _, candidate := range candidates {
		candidateLower := strings.ToLower(candidate)

		dist := levenshteinDistance(inputLower, candidateLower)

		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	// Short words (1-3): max 1 edit
	// Medium words (4-6): max 2 edits
	// Longer words (7+): max 3 edits
	threshold := 1
	if len(input) >= 4 && len(input) <= 6 {
		threshold = 2
	} else if len(input) >= 7 {
		threshold = 3
	}

	if bestDistance <= 0 || bestDistance > threshold {
		return ""
	}

	return bestMatch
}

// NewUndefinedIdentifier creates an undefined identifier error with optional
// "Did you mean?" fuzzy matching.
func NewUndefinedIdentifier(name string, availableIdentifiers []string) *RillError {
	data := map[string]any{"Name": name}
	err := New("UNDEF-0001", data)

	if suggestion := FindClosestMatch(name, availableIdentifiers); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}

	return err
}
