package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/sharegate/types"
)

// IntentTable records the intent every route was registered with.
// Routes missing from the table are treated as standard routes.
type IntentTable struct {
	mu      sync.RWMutex
	intents map[string]types.EndpointIntent
}

func NewIntentTable() *IntentTable {
	return &IntentTable{intents: make(map[string]types.EndpointIntent)}
}

func intentKey(method, fullPath string) string {
	return method + " " + fullPath
}

func (t *IntentTable) Declare(method, fullPath string, intent types.EndpointIntent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.intents[intentKey(method, fullPath)] = intent
}

// Lookup implements middlewares.IntentLookup.
func (t *IntentTable) Lookup(method, fullPath string) types.EndpointIntent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if intent, ok := t.intents[intentKey(method, fullPath)]; ok {
		return intent
	}
	return types.IntentStandard
}

// annotatedGroup registers routes on a gin group and declares their intent in one go.
type annotatedGroup struct {
	group  *gin.RouterGroup
	table  *IntentTable
	intent types.EndpointIntent
}

func (g annotatedGroup) handle(method, relativePath string, handlers ...gin.HandlerFunc) {
	g.group.Handle(method, relativePath, handlers...)
	g.table.Declare(method, joinPaths(g.group.BasePath(), relativePath), g.intent)
}

func (g annotatedGroup) GET(relativePath string, handlers ...gin.HandlerFunc) {
	g.handle(http.MethodGet, relativePath, handlers...)
}

func (g annotatedGroup) POST(relativePath string, handlers ...gin.HandlerFunc) {
	g.handle(http.MethodPost, relativePath, handlers...)
}

func (g annotatedGroup) DELETE(relativePath string, handlers ...gin.HandlerFunc) {
	g.handle(http.MethodDelete, relativePath, handlers...)
}

func joinPaths(base, rel string) string {
	if rel == "" {
		return base
	}
	if base == "" || base == "/" {
		return rel
	}
	if base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	if rel[0] != '/' {
		rel = "/" + rel
	}
	return base + rel
}
