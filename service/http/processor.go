package http

import (
	"fmt"
	"memdump/pkg/config"
	"memdump/pkg/prowler"
	"memdump/service"
	"memdump/utils"
	"net/http"

	"github.com/derekparker/trie"
)

type Router struct {
	method string
	path   string
	fn     func(ctx *Context)
}

type processor struct {
	impl   *service.ServerImpl
	router []*Router
	trie   *trie.Trie
}

func (p *processor) route(method, path string) func(ctx *Context) {
	node, found := p.trie.Find(utils.MD5(methodPath(method, path)))
	if found {
		fn := node.Meta().(func(ctx *Context))
		return fn
	}

	return nil
}

func (p *processor) worker(ctx *Context) {
	req := ctx.request
	fn := p.route(req.method, req.path)
	if fn == nil {
		ctx.respFailed(http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}

	fn(ctx)
}

func newProcessor(impl *service.ServerImpl) *processor {
	proc := &processor{
		impl: impl,
	}

	register(proc)
	return proc
}

func (p *processor) prowler() *prowler.Prowler {
	return p.impl.Prowler
}

func register(p *processor) {
	r := []*Router{
		{
			method: http.MethodGet,
			path:   "/explore",
			fn: func(ctx *Context) {
				ctx.respSuccess(p.impl.Info())
			},
		},
		{
			method: http.MethodGet,
			path:   "/read",
			fn: func(ctx *Context) {
				cmd, args := ctx.expr.resolve()
				if cmd != "read" {
					ctx.respFailed(http.StatusBadRequest, fmt.Sprintf("invalid command: %s", cmd))
					return
				}

				if len(args) != 2 {
					ctx.respFailed(http.StatusBadRequest, fmt.Sprintf("invalid number of arguments: %d", len(args)))
					return
				}

				addr, err := utils.ParseAddr(args[0])
				if err != nil {
					ctx.respFailed(http.StatusBadRequest, err.Error())
					return
				}
				size, err := utils.ParseSize(args[1])
				if err != nil {
					ctx.respFailed(http.StatusBadRequest, err.Error())
					return
				}

				b, err := p.prowler().ReadFrame(addr, size)
				if err != nil {
					ctx.respFailed(service.HTTPStatus(err), err.Error())
					return
				}

				ctx.respSuccess(b)
			},
		},
		{
			method: http.MethodGet,
			path:   "/ranges",
			fn: func(ctx *Context) {
				cmd, args := ctx.expr.resolve()
				if cmd != "ranges" {
					ctx.respFailed(http.StatusBadRequest, fmt.Sprintf("invalid command: %s", cmd))
					return
				}

				perms := config.DefaultPerms
				if len(args) > 0 {
					perms = args[0]
				}

				ranges, err := p.prowler().Ranges(perms)
				if err != nil {
					ctx.respFailed(http.StatusInternalServerError, err.Error())
					return
				}

				ctx.respSuccess(ranges)
			},
		},
	}

	p.router = r

	t := trie.New()
	for _, router := range p.router {
		md5 := utils.MD5(methodPath(router.method, router.path))
		t.Add(md5, router.fn)
	}

	p.trie = t
}

func methodPath(method, path string) string {
	return fmt.Sprintf("%s:%s", method, path)
}
