package serverutils

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

type errorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func Write(b []byte, ctx *fasthttp.RequestCtx) (int, error) {
	return ctx.Write(b)
}

// WriteData responds with {"data": v}.
func WriteData(ctx *fasthttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(struct {
		Data any `json:"data"`
	}{Data: v})
	if err != nil {
		log.Err(err).Msg("[server] failed to marshal response")
		WriteError(ctx, fasthttp.StatusInternalServerError, "internal server error")
		return
	}
	ctx.SetStatusCode(status)
	if _, err = Write(b, ctx); err != nil {
		log.Err(err).Msg("[server] failed to write into *fasthttp.RequestCtx")
	}
}

// WriteError responds with {"error": {"status": .., "message": ..}}.
func WriteError(ctx *fasthttp.RequestCtx, status int, message string) {
	var body errorBody
	body.Error.Status = status
	body.Error.Message = message

	b, _ := json.Marshal(body)
	ctx.SetStatusCode(status)
	if _, err := Write(b, ctx); err != nil {
		log.Err(err).Msg("[server] failed to write into *fasthttp.RequestCtx")
	}
}
