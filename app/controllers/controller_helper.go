package controllers

import (
	"github.com/quotefox/quotefox/internal/pkg/inference"
	"github.com/quotefox/quotefox/internal/pkg/quotegen"
	"github.com/quotefox/quotefox/internal/pkg/quotenumber"
	"github.com/quotefox/quotefox/internal/pkg/ratecache"
	"github.com/quotefox/quotefox/internal/pkg/storage"
)

// Process-wide collaborators, wired once at startup by Setup. Controllers
// reach them through these accessors so tests can substitute fakes.
var (
	storageBackend storage.Backend
	inferenceSvc   inference.Service
	rateEngine     *ratecache.Engine
	generator      *quotegen.Generator
	quoteNumbers   *quotenumber.Allocator
)

// Setup injects the composed collaborators into the controller layer.
func Setup(backend storage.Backend, svc inference.Service, engine *ratecache.Engine, gen *quotegen.Generator, numbers *quotenumber.Allocator) {
	storageBackend = backend
	inferenceSvc = svc
	rateEngine = engine
	generator = gen
	quoteNumbers = numbers
}
