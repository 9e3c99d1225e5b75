package evaluator

// Environment stores variable bindings with lexical scoping. Environment
// variables live only on the root environment so that every scope sees the
// same mutable set.
type Environment struct {
	store   map[string]Object
	outer   *Environment
	envVars map[string]Object // root environment only

	// Filename of the script being evaluated, for error reporting
	Filename string
}

// NewEnvironment creates a new root environment
func NewEnvironment() *Environment {
	return &Environment{
		store:   make(map[string]Object),
		envVars: make(map[string]Object),
	}
}

// NewEnclosedEnvironment creates an environment nested inside outer
func NewEnclosedEnvironment(outer *Environment) *Environment {
	return &Environment{
		store: make(map[string]Object),
		outer: outer,
	}
}

// Get retrieves a variable, checking outer scopes if not found locally
func (e *Environment) Get(name string) (Object, bool) {
	obj, ok := e.store[name]
	if !ok && e.outer != nil {
		obj, ok = e.outer.Get(name)
	}
	return obj, ok
}

// Set binds a variable in this scope
func (e *Environment) Set(name string, val Object) Object {
	e.store[name] = val
	return val
}

// Update reassigns an existing variable in the scope where it was defined.
// Returns an error if the variable does not exist anywhere in the chain.
func (e *Environment) Update(name string, val Object) Object {
	scope := e
	for scope != nil {
		if _, ok := scope.store[name]; ok {
			scope.store[name] = val
			return val
		}
		scope = scope.outer
	}
	return newUndefinedNameError(name, e)
}

// Names returns all variable names visible from this environment
func (e *Environment) Names() []string {
	names := []string{}
	seen := map[string]bool{}
	for scope := e; scope != nil; scope = scope.outer {
		for name := range scope.store {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// root walks to the outermost environment, which owns the env var set
func (e *Environment) root() *Environment {
	scope := e
	for scope.outer != nil {
		scope = scope.outer
	}
	return scope
}

// GetEnvVar retrieves an environment variable from the root environment
func (e *Environment) GetEnvVar(name string) (Object, bool) {
	r := e.root()
	if r.envVars == nil {
		return nil, false
	}
	val, ok := r.envVars[name]
	return val, ok
}

// SetEnvVar stores an environment variable on the root environment
func (e *Environment) SetEnvVar(name string, val Object) {
	r := e.root()
	if r.envVars == nil {
		r.envVars = make(map[string]Object)
	}
	r.envVars[name] = val
}

// SnapshotEnvVars copies the current environment variable set. The values
// themselves are shared; only the map is copied.
func (e *Environment) SnapshotEnvVars() map[string]Object {
	r := e.root()
	snap := make(map[string]Object, len(r.envVars))
	for k, v := range r.envVars {
		snap[k] = v
	}
	return snap
}

// RestoreEnvVars replaces the environment variable set with a snapshot.
// Keys added since the snapshot are discarded.
func (e *Environment) RestoreEnvVars(snap map[string]Object) {
	r := e.root()
	vars := make(map[string]Object, len(snap))
	for k, v := range snap {
		vars[k] = v
	}
	r.envVars = vars
}
