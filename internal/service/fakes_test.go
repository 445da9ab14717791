package service

import (
	"context"
	"time"

	"almapos/internal/model"
	"almapos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. They return a nil *gorm.DB so services run
// their transaction closures directly via runTx's nil-db path.

type fakeCajaRepo struct {
	sesiones    map[uuid.UUID]*model.SesionCaja
	movimientos []model.MovimientoCaja
}

func newFakeCajaRepo() *fakeCajaRepo {
	return &fakeCajaRepo{sesiones: make(map[uuid.UUID]*model.SesionCaja)}
}

func (f *fakeCajaRepo) DB() *gorm.DB { return nil }

func (f *fakeCajaRepo) AbrirSesion(_ context.Context, s *model.SesionCaja, apertura *model.MovimientoCaja) error {
	for _, existente := range f.sesiones {
		if existente.Estado == model.SesionAbierta {
			return repository.ErrSesionYaAbierta
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	copia := *s
	f.sesiones[s.ID] = &copia
	apertura.SesionCajaID = s.ID
	if apertura.ID == uuid.Nil {
		apertura.ID = uuid.New()
	}
	f.movimientos = append(f.movimientos, *apertura)
	return nil
}

func (f *fakeCajaRepo) FindSesionAbierta(context.Context) (*model.SesionCaja, error) {
	for _, s := range f.sesiones {
		if s.Estado == model.SesionAbierta {
			copia := *s
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCajaRepo) FindSesionByID(_ context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	s, ok := f.sesiones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *s
	return &copia, nil
}

func (f *fakeCajaRepo) FindSesionTx(_ *gorm.DB, id uuid.UUID) (*model.SesionCaja, error) {
	return f.FindSesionByID(context.Background(), id)
}

func (f *fakeCajaRepo) CerrarSesionTx(_ *gorm.DB, s *model.SesionCaja) error {
	actual, ok := f.sesiones[s.ID]
	if !ok || actual.Estado != model.SesionAbierta {
		return repository.ErrSesionNoAbierta
	}
	copia := *s
	f.sesiones[s.ID] = &copia
	return nil
}

func (f *fakeCajaRepo) CreateMovimiento(_ context.Context, m *model.MovimientoCaja) error {
	return f.CreateMovimientoTx(nil, m)
}

func (f *fakeCajaRepo) CreateMovimientoTx(_ *gorm.DB, m *model.MovimientoCaja) error {
	s, ok := f.sesiones[m.SesionCajaID]
	if !ok || s.Estado != model.SesionAbierta {
		return repository.ErrSesionNoAbierta
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	f.movimientos = append(f.movimientos, *m)
	return nil
}

func (f *fakeCajaRepo) ListMovimientos(_ context.Context, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	var out []model.MovimientoCaja
	for _, m := range f.movimientos {
		if m.SesionCajaID == sesionCajaID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeCajaRepo) ListMovimientosTx(_ *gorm.DB, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	return f.ListMovimientos(context.Background(), sesionCajaID)
}

type fakeVentaRepo struct {
	ventas []model.Venta
}

func (f *fakeVentaRepo) DB() *gorm.DB { return nil }

func (f *fakeVentaRepo) Create(_ context.Context, _ *gorm.DB, v *model.Venta) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	f.ventas = append(f.ventas, *v)
	return nil
}

func (f *fakeVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	for _, v := range f.ventas {
		if v.ID == id {
			copia := v
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeVentaRepo) ListPorRango(_ context.Context, sesionCajaID uuid.UUID, desde, hasta time.Time) ([]model.Venta, error) {
	var out []model.Venta
	for _, v := range f.ventas {
		if v.SesionCajaID != sesionCajaID || v.Estado == model.VentaAnulada {
			continue
		}
		if v.Fecha.Before(desde) || !v.Fecha.Before(hasta) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeVentaRepo) ListBySesion(_ context.Context, sesionCajaID uuid.UUID) ([]model.Venta, error) {
	var out []model.Venta
	for _, v := range f.ventas {
		if v.SesionCajaID == sesionCajaID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeVentaRepo) UpdateEstadoTx(_ *gorm.DB, id uuid.UUID, estado string) error {
	for i := range f.ventas {
		if f.ventas[i].ID == id {
			f.ventas[i].Estado = estado
			f.ventas[i].SyncStatus = model.SyncPendiente
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeVentaRepo) FindFiscalPendientes(_ context.Context, maxIntentos, limit int) ([]model.Venta, error) {
	var out []model.Venta
	for _, v := range f.ventas {
		if v.EstadoFiscal == model.FiscalPendiente && v.FiscalIntentos < maxIntentos {
			out = append(out, v)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeVentaRepo) UpdateFiscal(_ context.Context, v *model.Venta) error {
	for i := range f.ventas {
		if f.ventas[i].ID == v.ID {
			f.ventas[i] = *v
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
}

func newFakeProductoRepo() *fakeProductoRepo {
	return &fakeProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (f *fakeProductoRepo) DB() *gorm.DB { return nil }

func (f *fakeProductoRepo) Create(_ context.Context, p *model.Producto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	copia := *p
	f.productos[p.ID] = &copia
	return nil
}

func (f *fakeProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := f.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *p
	return &copia, nil
}

func (f *fakeProductoRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	return f.FindByID(context.Background(), id)
}

func (f *fakeProductoRepo) FindByBarcode(_ context.Context, barcode string) (*model.Producto, error) {
	for _, p := range f.productos {
		if p.CodigoBarras != nil && *p.CodigoBarras == barcode && p.Activo {
			copia := *p
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductoRepo) List(context.Context, string, bool) ([]model.Producto, error) {
	var out []model.Producto
	for _, p := range f.productos {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProductoRepo) Update(_ context.Context, p *model.Producto) error {
	copia := *p
	f.productos[p.ID] = &copia
	return nil
}

func (f *fakeProductoRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := f.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Activo = false
	p.SyncStatus = model.SyncPendiente
	return nil
}

func (f *fakeProductoRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	p, ok := f.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Stock += delta
	p.SyncStatus = model.SyncPendiente
	return nil
}

type fakeClienteRepo struct {
	clientes    map[uuid.UUID]*model.Cliente
	movimientos []model.MovimientoCliente
}

func newFakeClienteRepo() *fakeClienteRepo {
	return &fakeClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
}

func (f *fakeClienteRepo) DB() *gorm.DB { return nil }

func (f *fakeClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	copia := *c
	f.clientes[c.ID] = &copia
	return nil
}

func (f *fakeClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := f.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *c
	return &copia, nil
}

func (f *fakeClienteRepo) List(context.Context, string) ([]model.Cliente, error) {
	var out []model.Cliente
	for _, c := range f.clientes {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	copia := *c
	f.clientes[c.ID] = &copia
	return nil
}

func (f *fakeClienteRepo) RegistrarMovimiento(_ context.Context, m *model.MovimientoCliente) error {
	return f.RegistrarMovimientoTx(nil, m)
}

func (f *fakeClienteRepo) RegistrarMovimientoTx(_ *gorm.DB, m *model.MovimientoCliente) error {
	c, ok := f.clientes[m.ClienteID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	f.movimientos = append(f.movimientos, *m)
	c.Saldo = c.Saldo.Add(m.Delta())
	c.SyncStatus = model.SyncPendiente
	return nil
}

func (f *fakeClienteRepo) ListMovimientos(_ context.Context, clienteID uuid.UUID) ([]model.MovimientoCliente, error) {
	var out []model.MovimientoCliente
	for _, m := range f.movimientos {
		if m.ClienteID == clienteID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeStockRepo struct {
	movimientos []model.MovimientoStock
}

func (f *fakeStockRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	f.movimientos = append(f.movimientos, *m)
	return nil
}

func (f *fakeStockRepo) ListByProducto(_ context.Context, productoID uuid.UUID, _ int) ([]model.MovimientoStock, error) {
	var out []model.MovimientoStock
	for _, m := range f.movimientos {
		if m.ProductoID == productoID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStockRepo) ListPorRango(context.Context, time.Time, time.Time) ([]model.MovimientoStock, error) {
	return f.movimientos, nil
}
