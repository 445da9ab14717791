package handler

import (
	"context"
	"net/http"

	"almapos/internal/apierror"
	"almapos/internal/dto"
	"almapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CatalogoHandler struct{ svc service.CatalogoService }

func NewCatalogoHandler(svc service.CatalogoService) *CatalogoHandler {
	return &CatalogoHandler{svc: svc}
}

func (h *CatalogoHandler) CrearCategoria(c *gin.Context) { h.crear(c, h.svc.CrearCategoria) }
func (h *CatalogoHandler) CrearMarca(c *gin.Context)     { h.crear(c, h.svc.CrearMarca) }
func (h *CatalogoHandler) CrearProveedor(c *gin.Context) { h.crear(c, h.svc.CrearProveedor) }

func (h *CatalogoHandler) ListarCategorias(c *gin.Context)  { h.listar(c, h.svc.ListarCategorias) }
func (h *CatalogoHandler) ListarMarcas(c *gin.Context)      { h.listar(c, h.svc.ListarMarcas) }
func (h *CatalogoHandler) ListarProveedores(c *gin.Context) { h.listar(c, h.svc.ListarProveedores) }

func (h *CatalogoHandler) DesactivarCategoria(c *gin.Context) {
	h.desactivar(c, h.svc.DesactivarCategoria)
}
func (h *CatalogoHandler) DesactivarMarca(c *gin.Context) { h.desactivar(c, h.svc.DesactivarMarca) }
func (h *CatalogoHandler) DesactivarProveedor(c *gin.Context) {
	h.desactivar(c, h.svc.DesactivarProveedor)
}

func (h *CatalogoHandler) crear(c *gin.Context, fn func(context.Context, dto.CrearNombreRequest) (*dto.NombreResponse, error)) {
	var req dto.CrearNombreRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := fn(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CatalogoHandler) listar(c *gin.Context, fn func(context.Context) ([]dto.NombreResponse, error)) {
	resp, err := fn(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("No se pudo listar el catalogo"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogoHandler) desactivar(c *gin.Context, fn func(context.Context, uuid.UUID) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	if err := fn(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}
