package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"S2Grid-App/internal/domain/model"
	"S2Grid-App/internal/usecase"
)

// S2Handler はS2セル計算APIのハンドラー
type S2Handler struct {
	s2UseCase usecase.S2UseCase
}

// NewS2Handler は新しいS2Handlerインスタンスを作成
func NewS2Handler(s2UseCase usecase.S2UseCase) *S2Handler {
	return &S2Handler{
		s2UseCase: s2UseCase,
	}
}

// Register ルーティングを登録する
func (h *S2Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/cells", h.PostCells)
	rg.POST("/polygons", h.PostPolygons)
	rg.POST("/circle-coverage", h.PostCircleCoverage)
	rg.POST("/cell-coverage", h.PostCellCoverage)
	rg.POST("/cell-map", h.PostCellMap)
}

// PostCells 境界ボックスをカバーするセルとその頂点
// POST /api/v1/s2/cells
func (h *S2Handler) PostCells(c *gin.Context) {
	var req model.CellsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := ValidateCellsRequest(&req); err != nil {
		respondError(c, err)
		return
	}

	cells, err := h.s2UseCase.GetCells(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cells)
}

// PostPolygons セルID（10進文字列）の配列から頂点を返す
// POST /api/v1/s2/polygons
func (h *S2Handler) PostPolygons(c *gin.Context) {
	var ids []string
	if err := c.ShouldBindJSON(&ids); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.s2UseCase.GetPolygons(c.Request.Context(), ids)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PostCircleCoverage 円と交差するセルのID一覧
// POST /api/v1/s2/circle-coverage
func (h *S2Handler) PostCircleCoverage(c *gin.Context) {
	var req model.CircleCoverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := ValidateCircleCoverageRequest(&req); err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.s2UseCase.CircleCoverage(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PostCellCoverage 点を中心にsize×sizeのセルのID一覧
// POST /api/v1/s2/cell-coverage
func (h *S2Handler) PostCellCoverage(c *gin.Context) {
	var req model.CellCoverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := ValidateCellCoverageRequest(&req); err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.s2UseCase.CellCoverage(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PostCellMap ポイントを祖先セルごとにまとめる。キーは10進のセルID
// POST /api/v1/s2/cell-map
func (h *S2Handler) PostCellMap(c *gin.Context) {
	var req model.CellMapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := validateLevel("split_level", req.SplitLevel); err != nil {
		respondError(c, err)
		return
	}
	for _, p := range req.Points {
		if err := firstError(validateLat("points.lat", p.Lat()), validateLon("points.lon", p.Lng())); err != nil {
			respondError(c, err)
			return
		}
	}

	buckets, err := h.s2UseCase.CellMap(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, buckets)
}
