package sync

import (
	"time"

	"almapos/internal/cloudstore"
	"almapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wire format: documents are flat JSON-serializable maps keyed by the
// record's local identifier. Dates are ISO-8601 strings — never native
// timestamps — so documents written from any device or platform read back
// identically. Sync metadata never travels: presence in the cloud already
// means synced.

func fechaISO(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func fechaISOPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fechaISO(*t)
}

func monto(d decimal.Decimal) float64 { return d.InexactFloat64() }

func montoPtr(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return monto(*d)
}

func strPtr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func uuidPtr(p *uuid.UUID) any {
	if p == nil {
		return nil
	}
	return p.String()
}

// ── Doc readers ───────────────────────────────────────────────────────────────
// Apply-style decoding: a key absent from the document leaves the local field
// untouched, which is what gives the mirror download its field-level merge
// semantics.

func docStr(d cloudstore.Doc, k string) (string, bool) {
	v, ok := d[k]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func docStrPtr(d cloudstore.Doc, k string, dst **string) {
	if s, ok := docStr(d, k); ok {
		*dst = &s
	}
}

func docBool(d cloudstore.Doc, k string) (bool, bool) {
	v, ok := d[k]
	if !ok || v == nil {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func docInt(d cloudstore.Doc, k string) (int, bool) {
	v, ok := d[k]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}

func docMonto(d cloudstore.Doc, k string) (decimal.Decimal, bool) {
	v, ok := d[k]
	if !ok || v == nil {
		return decimal.Zero, false
	}
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case string:
		dec, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero, false
		}
		return dec, true
	}
	return decimal.Zero, false
}

func docFecha(d cloudstore.Doc, k string) (time.Time, bool) {
	v, ok := d[k]
	if !ok || v == nil {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	case time.Time:
		// Tolerated for documents written by older clients that stored
		// native timestamps.
		return t, true
	}
	return time.Time{}, false
}

func docFechaPtr(d cloudstore.Doc, k string, dst **time.Time) {
	if t, ok := docFecha(d, k); ok {
		*dst = &t
	}
}

func docUUIDPtr(d cloudstore.Doc, k string, dst **uuid.UUID) {
	if s, ok := docStr(d, k); ok {
		if parsed, err := uuid.Parse(s); err == nil {
			*dst = &parsed
		}
	}
}

func docUUID(d cloudstore.Doc, k string, dst *uuid.UUID) {
	if s, ok := docStr(d, k); ok {
		if parsed, err := uuid.Parse(s); err == nil {
			*dst = parsed
		}
	}
}

// nombreDoc extracts the normalized display name used for duplicate fusion.
func nombreDoc(d cloudstore.Doc) string {
	s, _ := docStr(d, "nombre")
	return model.NormalizarNombre(s)
}

// ── Catalog codecs ────────────────────────────────────────────────────────────

func encodeCategoria(c *model.Categoria) cloudstore.Doc {
	return cloudstore.Doc{
		"nombre":     c.Nombre,
		"activo":     c.Activo,
		"created_at": fechaISO(c.CreatedAt),
		"updated_at": fechaISO(c.UpdatedAt),
	}
}

func applyCategoria(d cloudstore.Doc, c *model.Categoria) error {
	if s, ok := docStr(d, "nombre"); ok {
		c.Nombre = s
	}
	if b, ok := docBool(d, "activo"); ok {
		c.Activo = b
	}
	if t, ok := docFecha(d, "created_at"); ok {
		c.CreatedAt = t
	}
	return nil
}

func encodeMarca(m *model.Marca) cloudstore.Doc {
	return cloudstore.Doc{
		"nombre":     m.Nombre,
		"activo":     m.Activo,
		"created_at": fechaISO(m.CreatedAt),
		"updated_at": fechaISO(m.UpdatedAt),
	}
}

func applyMarca(d cloudstore.Doc, m *model.Marca) error {
	if s, ok := docStr(d, "nombre"); ok {
		m.Nombre = s
	}
	if b, ok := docBool(d, "activo"); ok {
		m.Activo = b
	}
	if t, ok := docFecha(d, "created_at"); ok {
		m.CreatedAt = t
	}
	return nil
}

func encodeProveedor(p *model.Proveedor) cloudstore.Doc {
	return cloudstore.Doc{
		"nombre":     p.Nombre,
		"cuit":       strPtr(p.CUIT),
		"telefono":   strPtr(p.Telefono),
		"email":      strPtr(p.Email),
		"activo":     p.Activo,
		"created_at": fechaISO(p.CreatedAt),
		"updated_at": fechaISO(p.UpdatedAt),
	}
}

func applyProveedor(d cloudstore.Doc, p *model.Proveedor) error {
	if s, ok := docStr(d, "nombre"); ok {
		p.Nombre = s
	}
	docStrPtr(d, "cuit", &p.CUIT)
	docStrPtr(d, "telefono", &p.Telefono)
	docStrPtr(d, "email", &p.Email)
	if b, ok := docBool(d, "activo"); ok {
		p.Activo = b
	}
	return nil
}

// encodeProducto flags soft-deleted products as activo=false on the wire;
// the cloud document is never removed, so other devices deactivate instead
// of resurrecting or orphaning references.
func encodeProducto(p *model.Producto) cloudstore.Doc {
	return cloudstore.Doc{
		"nombre":        p.Nombre,
		"codigo_barras": strPtr(p.CodigoBarras),
		"categoria_id":  uuidPtr(p.CategoriaID),
		"marca_id":      uuidPtr(p.MarcaID),
		"proveedor_id":  uuidPtr(p.ProveedorID),
		"precio_costo":  monto(p.PrecioCosto),
		"precio_venta":  monto(p.PrecioVenta),
		"stock":         p.Stock,
		"stock_minimo":  p.StockMinimo,
		"activo":        p.Activo,
		"created_at":    fechaISO(p.CreatedAt),
		"updated_at":    fechaISO(p.UpdatedAt),
	}
}

func applyProducto(d cloudstore.Doc, p *model.Producto) error {
	if s, ok := docStr(d, "nombre"); ok {
		p.Nombre = s
	}
	docStrPtr(d, "codigo_barras", &p.CodigoBarras)
	docUUIDPtr(d, "categoria_id", &p.CategoriaID)
	docUUIDPtr(d, "marca_id", &p.MarcaID)
	docUUIDPtr(d, "proveedor_id", &p.ProveedorID)
	if m, ok := docMonto(d, "precio_costo"); ok {
		p.PrecioCosto = m
	}
	if m, ok := docMonto(d, "precio_venta"); ok {
		p.PrecioVenta = m
	}
	if n, ok := docInt(d, "stock"); ok {
		p.Stock = n
	}
	if n, ok := docInt(d, "stock_minimo"); ok {
		p.StockMinimo = n
	}
	if b, ok := docBool(d, "activo"); ok {
		p.Activo = b
	}
	return nil
}

// ── Clientes / usuarios / config ──────────────────────────────────────────────

func encodeCliente(c *model.Cliente) cloudstore.Doc {
	return cloudstore.Doc{
		"nombre":     c.Nombre,
		"documento":  strPtr(c.Documento),
		"telefono":   strPtr(c.Telefono),
		"email":      strPtr(c.Email),
		"saldo":      monto(c.Saldo),
		"activo":     c.Activo,
		"created_at": fechaISO(c.CreatedAt),
		"updated_at": fechaISO(c.UpdatedAt),
	}
}

func applyCliente(d cloudstore.Doc, c *model.Cliente) error {
	if s, ok := docStr(d, "nombre"); ok {
		c.Nombre = s
	}
	docStrPtr(d, "documento", &c.Documento)
	docStrPtr(d, "telefono", &c.Telefono)
	docStrPtr(d, "email", &c.Email)
	if m, ok := docMonto(d, "saldo"); ok {
		c.Saldo = m
	}
	if b, ok := docBool(d, "activo"); ok {
		c.Activo = b
	}
	return nil
}

func encodeUsuario(u *model.Usuario) cloudstore.Doc {
	return cloudstore.Doc{
		"username":   u.Username,
		"nombre":     u.Nombre,
		"pin_hash":   u.PINHash,
		"rol":        u.Rol,
		"activo":     u.Activo,
		"created_at": fechaISO(u.CreatedAt),
		"updated_at": fechaISO(u.UpdatedAt),
	}
}

func applyUsuario(d cloudstore.Doc, u *model.Usuario) error {
	if s, ok := docStr(d, "username"); ok {
		u.Username = s
	}
	if s, ok := docStr(d, "nombre"); ok {
		u.Nombre = s
	}
	if s, ok := docStr(d, "pin_hash"); ok {
		u.PINHash = s
	}
	if s, ok := docStr(d, "rol"); ok {
		u.Rol = s
	}
	if b, ok := docBool(d, "activo"); ok {
		u.Activo = b
	}
	return nil
}

func encodeConfig(c *model.ConfigEntry) cloudstore.Doc {
	return cloudstore.Doc{
		"valor":      c.Valor,
		"updated_at": fechaISO(c.UpdatedAt),
	}
}

func applyConfig(d cloudstore.Doc, c *model.ConfigEntry) error {
	if s, ok := docStr(d, "valor"); ok {
		c.Valor = s
	}
	return nil
}

// ── Venta ─────────────────────────────────────────────────────────────────────
// The venta document preserves its payment and fiscal sub-objects intact:
// a re-upload after partial failure must re-send the exact same shape, and
// field-level merge on the cloud side must never split a payment breakdown.

func encodeVenta(v *model.Venta) cloudstore.Doc {
	items := make([]map[string]any, 0, len(v.Items))
	for _, it := range v.Items {
		items = append(items, map[string]any{
			"id":              it.ID.String(),
			"producto_id":     it.ProductoID.String(),
			"nombre":          it.Nombre,
			"cantidad":        it.Cantidad,
			"precio_unitario": monto(it.PrecioUnitario),
			"subtotal":        monto(it.Subtotal),
		})
	}
	pagos := make([]map[string]any, 0, len(v.Pagos))
	for _, p := range v.Pagos {
		pagos = append(pagos, map[string]any{
			"id":     p.ID.String(),
			"metodo": p.Metodo,
			"pagado": monto(p.Pagado),
			"debe":   monto(p.Debe),
		})
	}
	return cloudstore.Doc{
		"sesion_caja_id": v.SesionCajaID.String(),
		"usuario_id":     v.UsuarioID.String(),
		"cliente_id":     uuidPtr(v.ClienteID),
		"total":          monto(v.Total),
		"estado":         v.Estado,
		"fecha":          fechaISO(v.Fecha),
		"items":          items,
		"pagos":          pagos,
		"fiscal": map[string]any{
			"estado":          v.EstadoFiscal,
			"cae":             strPtr(v.CAE),
			"cae_vencimiento": fechaISOPtr(v.CAEVencimiento),
			"numero":          v.NumeroCbte,
			"tipo_cbte":       v.TipoCbte,
			"qr":              strPtr(v.QRData),
		},
	}
}

func applyVenta(d cloudstore.Doc, v *model.Venta) error {
	docUUID(d, "sesion_caja_id", &v.SesionCajaID)
	docUUID(d, "usuario_id", &v.UsuarioID)
	docUUIDPtr(d, "cliente_id", &v.ClienteID)
	if m, ok := docMonto(d, "total"); ok {
		v.Total = m
	}
	if s, ok := docStr(d, "estado"); ok {
		v.Estado = s
	}
	if t, ok := docFecha(d, "fecha"); ok {
		v.Fecha = t
	}
	if raw, ok := d["fiscal"].(map[string]any); ok {
		fiscal := cloudstore.Doc(raw)
		if s, ok := docStr(fiscal, "estado"); ok {
			v.EstadoFiscal = s
		}
		docStrPtr(fiscal, "cae", &v.CAE)
		docFechaPtr(fiscal, "cae_vencimiento", &v.CAEVencimiento)
		if n, ok := docInt(fiscal, "numero"); ok {
			num := int64(n)
			v.NumeroCbte = &num
		}
		if n, ok := docInt(fiscal, "tipo_cbte"); ok {
			v.TipoCbte = &n
		}
		docStrPtr(fiscal, "qr", &v.QRData)
	}
	if raw, ok := d["items"].([]any); ok {
		v.Items = v.Items[:0]
		for _, el := range raw {
			m, ok := el.(map[string]any)
			if !ok {
				continue
			}
			item := cloudstore.Doc(m)
			var it model.VentaItem
			docUUID(item, "id", &it.ID)
			docUUID(item, "producto_id", &it.ProductoID)
			it.Nombre, _ = docStr(item, "nombre")
			it.Cantidad, _ = docInt(item, "cantidad")
			it.PrecioUnitario, _ = docMonto(item, "precio_unitario")
			it.Subtotal, _ = docMonto(item, "subtotal")
			v.Items = append(v.Items, it)
		}
	}
	if raw, ok := d["pagos"].([]any); ok {
		v.Pagos = v.Pagos[:0]
		for _, el := range raw {
			m, ok := el.(map[string]any)
			if !ok {
				continue
			}
			pago := cloudstore.Doc(m)
			var p model.VentaPago
			docUUID(pago, "id", &p.ID)
			p.Metodo, _ = docStr(pago, "metodo")
			p.Pagado, _ = docMonto(pago, "pagado")
			p.Debe, _ = docMonto(pago, "debe")
			v.Pagos = append(v.Pagos, p)
		}
	}
	return nil
}

// ── Caja ──────────────────────────────────────────────────────────────────────

func encodeSesionCaja(s *model.SesionCaja) cloudstore.Doc {
	return cloudstore.Doc{
		"usuario_id":      s.UsuarioID.String(),
		"estado":          s.Estado,
		"monto_inicial":   monto(s.MontoInicial),
		"monto_esperado":  montoPtr(s.MontoEsperado),
		"monto_declarado": montoPtr(s.MontoDeclarado),
		"desvio":          montoPtr(s.Desvio),
		"clasificacion":   strPtr(s.Clasificacion),
		"observaciones":   strPtr(s.Observaciones),
		"opened_at":       fechaISO(s.OpenedAt),
		"closed_at":       fechaISOPtr(s.ClosedAt),
	}
}

func encodeMovimientoCaja(m *model.MovimientoCaja) cloudstore.Doc {
	return cloudstore.Doc{
		"sesion_caja_id": m.SesionCajaID.String(),
		"tipo":           m.Tipo,
		"metodo_pago":    m.MetodoPago,
		"monto":          monto(m.Monto),
		"descripcion":    m.Descripcion,
		"apertura":       m.Apertura,
		"referencia_id":  uuidPtr(m.ReferenciaID),
		"fecha":          fechaISO(m.Fecha),
	}
}

// ── Kardex ────────────────────────────────────────────────────────────────────

func encodeMovimientoStock(m *model.MovimientoStock) cloudstore.Doc {
	return cloudstore.Doc{
		"producto_id":    m.ProductoID.String(),
		"tipo":           m.Tipo,
		"cantidad":       m.Cantidad,
		"stock_anterior": m.StockAnterior,
		"stock_nuevo":    m.StockNuevo,
		"motivo":         m.Motivo,
		"referencia_id":  uuidPtr(m.ReferenciaID),
		"fecha":          fechaISO(m.Fecha),
	}
}

func applyMovimientoStock(d cloudstore.Doc, m *model.MovimientoStock) error {
	docUUID(d, "producto_id", &m.ProductoID)
	if s, ok := docStr(d, "tipo"); ok {
		m.Tipo = s
	}
	if n, ok := docInt(d, "cantidad"); ok {
		m.Cantidad = n
	}
	if n, ok := docInt(d, "stock_anterior"); ok {
		m.StockAnterior = n
	}
	if n, ok := docInt(d, "stock_nuevo"); ok {
		m.StockNuevo = n
	}
	if s, ok := docStr(d, "motivo"); ok {
		m.Motivo = s
	}
	docUUIDPtr(d, "referencia_id", &m.ReferenciaID)
	if t, ok := docFecha(d, "fecha"); ok {
		m.Fecha = t
	}
	return nil
}
