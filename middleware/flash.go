package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/inkwell/utils"
)

// FlashCookie names the browser's flash queue id.
const FlashCookie = "flash_id"

const contextFlashIDKey = "flash_id"

func flashID(ctx *gin.Context) string {
	if v, ok := ctx.Get(contextFlashIDKey); ok {
		return v.(string)
	}
	id, err := ctx.Cookie(FlashCookie)
	if err != nil || id == "" {
		id = utils.NewFlashID()
		ctx.SetSameSite(http.SameSiteLaxMode)
		ctx.SetCookie(FlashCookie, id, 0, "/", "", false, true)
	}
	ctx.Set(contextFlashIDKey, id)
	return id
}

// AddFlash queues a message for the next page this browser renders.
func AddFlash(ctx *gin.Context, category, message string) {
	if err := utils.PushFlash(flashID(ctx), utils.FlashMessage{Category: category, Message: message}); err != nil {
		utils.Sugar.Warnw("flash not stored", "error", err)
	}
}

// Flashes returns and clears the queued messages.
func Flashes(ctx *gin.Context) []utils.FlashMessage {
	id, err := ctx.Cookie(FlashCookie)
	if err != nil {
		return nil
	}
	return utils.PopFlashes(id)
}
