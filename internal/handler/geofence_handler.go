package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb/geojson"

	"S2Grid-App/internal/usecase"
)

// DefaultGeofenceLevel levelを省略したときのカバーのレベル
const DefaultGeofenceLevel = 15

// GeofenceHandler ジオフェンスに関するHTTPハンドラー
type GeofenceHandler struct {
	geofenceUseCase usecase.GeofenceUseCase
}

// NewGeofenceHandler GeofenceHandlerの新しいインスタンスを作成
func NewGeofenceHandler(geofenceUseCase usecase.GeofenceUseCase) *GeofenceHandler {
	return &GeofenceHandler{
		geofenceUseCase: geofenceUseCase,
	}
}

// Register ルーティングを登録する
func (h *GeofenceHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/all", h.GetAll)
	rg.GET("/reference", h.GetReference)
	rg.POST("/save", h.Save)
	rg.GET("/area/:id", h.GetArea)
	rg.GET("/:id/s2", h.GetS2Cells)
	rg.DELETE("/:id", h.Delete)
}

// GetAll GET /geofence/all - 全ジオフェンスをFeatureCollectionで返す
func (h *GeofenceHandler) GetAll(c *gin.Context) {
	fc, err := h.geofenceUseCase.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fc)
}

// GetReference GET /geofence/reference - 形状を除いたID・名前・modeの一覧
func (h *GeofenceHandler) GetReference(c *gin.Context) {
	refs, err := h.geofenceUseCase.Reference(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refs)
}

// Save POST /geofence/save - FeatureCollectionを名前単位で登録・更新
func (h *GeofenceHandler) Save(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		respondBindError(c, err)
		return
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.geofenceUseCase.Save(c.Request.Context(), fc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetArea GET /geofence/area/:id - IDまたは名前で1件をFeatureで返す
func (h *GeofenceHandler) GetArea(c *gin.Context) {
	f, err := h.geofenceUseCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// GetS2Cells GET /geofence/:id/s2?level= - ジオフェンスを同一レベルのセルでカバー
func (h *GeofenceHandler) GetS2Cells(c *gin.Context) {
	level := DefaultGeofenceLevel
	if s := c.Query("level"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			respondError(c, &ValidationError{Field: "level", Message: "levelは整数で指定してください"})
			return
		}
		level = v
	}
	if err := validateLevel("level", level); err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.geofenceUseCase.Cover(c.Request.Context(), c.Param("id"), level)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete DELETE /geofence/:id
func (h *GeofenceHandler) Delete(c *gin.Context) {
	if err := h.geofenceUseCase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
