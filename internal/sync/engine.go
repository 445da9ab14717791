// Package sync reconciles the local store with the cloud store: it uploads
// pending records in idempotent batches, mirrors the reference catalogs back
// down (fusing duplicates created by uncoordinated devices), and backfills
// the high-volume time-series collections through bounded time windows.
package sync

import (
	"context"
	"errors"
	"reflect"
	stdsync "sync"
	"time"

	"almapos/internal/cloudstore"
	"almapos/internal/model"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	// Firestore commits at most 500 writes per batch; staying under it with
	// margin keeps a round safely inside the backend limit.
	defaultBatchSize = 450
	// Window size for the time-windowed (sandwich) downloads.
	defaultVentana = 200
)

// registroPtr constrains the generic helpers to pointer-to-model types that
// know their own cloud document key.
type registroPtr[T any] interface {
	*T
	DocID() string
	SetDocID(string) error
	MarkSynced(docID string, at time.Time)
	Pendiente() bool
}

// fkRef names a local column that references a fused collection, so fusion
// can rewrite stale identifiers instead of leaking them. Replicated tables
// additionally go back to pending so the canonical reference re-uploads.
type fkRef struct {
	Tabla     string
	Columna   string
	Replicada bool
}

// Estado is a snapshot of the engine's last cycle, served by /health.
type Estado struct {
	UltimoCiclo time.Time `json:"ultimo_ciclo"`
	Duracion    string    `json:"duracion"`
	Errores     []string  `json:"errores,omitempty"`
	EnCurso     bool      `json:"en_curso"`
}

// Engine orchestrates bidirectional reconciliation. At most one cycle runs
// at any time; a trigger while one is in flight is dropped, not queued.
type Engine struct {
	db        *gorm.DB
	cloud     cloudstore.Store
	batchSize int
	ventana   int

	ciclo stdsync.Mutex // held for the duration of one cycle

	mu     stdsync.Mutex // guards estado
	estado Estado
}

func New(db *gorm.DB, cloud cloudstore.Store) *Engine {
	return &Engine{
		db:        db,
		cloud:     cloud,
		batchSize: defaultBatchSize,
		ventana:   defaultVentana,
	}
}

// Estado returns the last cycle's outcome.
func (e *Engine) Estado() Estado {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.estado
}

// Sync runs one full upload+download cycle and reports whether it actually
// ran. Overlapping triggers are suppressed: if a cycle is in flight the call
// returns false immediately. Lack of connectivity is not an error — the
// cycle degrades to a no-op and reconciliation resumes on the next trigger.
func (e *Engine) Sync(ctx context.Context) bool {
	if !e.ciclo.TryLock() {
		log.Debug().Msg("sync: ciclo en curso, trigger descartado")
		return false
	}
	defer e.ciclo.Unlock()

	if !e.cloud.Online() {
		log.Debug().Msg("sync: sin conexion, ciclo omitido")
		return false
	}

	e.mu.Lock()
	e.estado.EnCurso = true
	e.mu.Unlock()

	inicio := time.Now()
	var fallas []string
	pasos := []struct {
		nombre string
		fn     func(context.Context) error
	}{
		{"subir categorias", e.subirCategorias},
		{"subir marcas", e.subirMarcas},
		{"subir proveedores", e.subirProveedores},
		{"subir productos", e.subirProductos},
		{"subir clientes", e.subirClientes},
		{"subir usuarios", e.subirUsuarios},
		{"subir config", e.subirConfig},
		{"subir sesiones de caja", e.subirSesionesCaja},
		{"subir movimientos de caja", e.subirMovimientosCaja},
		{"subir ventas", e.subirVentas},
		{"subir kardex", e.subirKardex},
		{"bajar categorias", e.bajarCategorias},
		{"bajar marcas", e.bajarMarcas},
		{"bajar proveedores", e.bajarProveedores},
		{"bajar productos", e.bajarProductos},
		{"bajar clientes", e.bajarClientes},
		{"bajar usuarios", e.bajarUsuarios},
		{"bajar config", e.bajarConfig},
		{"bajar ventas", e.bajarVentas},
		{"bajar kardex", e.bajarKardex},
	}

	// Each collection is reconciled independently: an error in one is
	// logged and must never abort the siblings.
	for _, paso := range pasos {
		if err := paso.fn(ctx); err != nil {
			if errors.Is(err, cloudstore.ErrOffline) {
				log.Debug().Str("paso", paso.nombre).Msg("sync: conexion perdida a mitad de ciclo")
				break
			}
			log.Error().Err(err).Str("paso", paso.nombre).Msg("sync: paso fallido")
			fallas = append(fallas, paso.nombre+": "+err.Error())
		}
	}

	e.mu.Lock()
	e.estado = Estado{
		UltimoCiclo: inicio,
		Duracion:    time.Since(inicio).String(),
		Errores:     fallas,
	}
	e.mu.Unlock()

	log.Info().
		Dur("duracion", time.Since(inicio)).
		Int("fallas", len(fallas)).
		Msg("sync: ciclo completado")
	return true
}

// ── Upload ────────────────────────────────────────────────────────────────────

// subirPendientes scans one collection for records with a non-synced status,
// uploads them in bounded batches keyed by each record's own identifier, and
// marks the whole batch synced only after the cloud commit succeeds. Keys are
// deterministic, so retrying after a partial network failure re-sends the
// same documents instead of duplicating them.
func subirPendientes[T any, PT registroPtr[T]](e *Engine, ctx context.Context, coleccion string, encode func(PT) cloudstore.Doc) error {
	var filas []T
	err := e.db.WithContext(ctx).
		Where("sync_status <> ?", model.SyncSincronizado).
		Find(&filas).Error
	if err != nil {
		return err
	}
	if len(filas) == 0 {
		return nil
	}

	for inicio := 0; inicio < len(filas); inicio += e.batchSize {
		fin := inicio + e.batchSize
		if fin > len(filas) {
			fin = len(filas)
		}
		lote := filas[inicio:fin]

		docs := make(map[string]cloudstore.Doc, len(lote))
		for i := range lote {
			p := PT(&lote[i])
			docs[p.DocID()] = encode(p)
		}
		if err := e.cloud.SetMergeAll(ctx, coleccion, docs); err != nil {
			return err
		}

		// The cloud batch committed: flip the whole slice in one local
		// transaction — all records synced or, on failure, none, so the
		// next cycle retries the identical batch.
		ahora := time.Now().UTC()
		err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for i := range lote {
				p := PT(&lote[i])
				err := tx.Model(p).Updates(map[string]any{
					"sync_status": model.SyncSincronizado,
					"synced_at":   ahora,
					"cloud_id":    p.DocID(),
				}).Error
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		log.Debug().Str("coleccion", coleccion).Int("registros", len(lote)).Msg("sync: lote subido")
	}
	return nil
}

func (e *Engine) subirCategorias(ctx context.Context) error {
	return subirPendientes[model.Categoria](e, ctx, "categorias", encodeCategoria)
}

func (e *Engine) subirMarcas(ctx context.Context) error {
	return subirPendientes[model.Marca](e, ctx, "marcas", encodeMarca)
}

func (e *Engine) subirProveedores(ctx context.Context) error {
	return subirPendientes[model.Proveedor](e, ctx, "proveedores", encodeProveedor)
}

func (e *Engine) subirProductos(ctx context.Context) error {
	return subirPendientes[model.Producto](e, ctx, "productos", encodeProducto)
}

func (e *Engine) subirClientes(ctx context.Context) error {
	return subirPendientes[model.Cliente](e, ctx, "clientes", encodeCliente)
}

func (e *Engine) subirUsuarios(ctx context.Context) error {
	return subirPendientes[model.Usuario](e, ctx, "usuarios", encodeUsuario)
}

func (e *Engine) subirConfig(ctx context.Context) error {
	return subirPendientes[model.ConfigEntry](e, ctx, "config", encodeConfig)
}

func (e *Engine) subirSesionesCaja(ctx context.Context) error {
	return subirPendientes[model.SesionCaja](e, ctx, "sesiones_caja", encodeSesionCaja)
}

func (e *Engine) subirMovimientosCaja(ctx context.Context) error {
	return subirPendientes[model.MovimientoCaja](e, ctx, "movimientos_caja", encodeMovimientoCaja)
}

// subirVentas needs its own encoder pass: the venta document carries the
// payment breakdown and fiscal result as intact sub-objects.
func (e *Engine) subirVentas(ctx context.Context) error {
	var pendientes []model.Venta
	err := e.db.WithContext(ctx).
		Preload("Items").Preload("Pagos").
		Where("sync_status <> ?", model.SyncSincronizado).
		Find(&pendientes).Error
	if err != nil {
		return err
	}
	if len(pendientes) == 0 {
		return nil
	}

	for inicio := 0; inicio < len(pendientes); inicio += e.batchSize {
		fin := inicio + e.batchSize
		if fin > len(pendientes) {
			fin = len(pendientes)
		}
		lote := pendientes[inicio:fin]

		docs := make(map[string]cloudstore.Doc, len(lote))
		for i := range lote {
			docs[lote[i].DocID()] = encodeVenta(&lote[i])
		}
		if err := e.cloud.SetMergeAll(ctx, "ventas", docs); err != nil {
			return err
		}

		ahora := time.Now().UTC()
		err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for i := range lote {
				err := tx.Model(&lote[i]).Updates(map[string]any{
					"sync_status": model.SyncSincronizado,
					"synced_at":   ahora,
					"cloud_id":    lote[i].DocID(),
				}).Error
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		log.Debug().Int("registros", len(lote)).Msg("sync: lote de ventas subido")
	}
	return nil
}

func (e *Engine) subirKardex(ctx context.Context) error {
	return subirPendientes[model.MovimientoStock](e, ctx, "movimientos_stock", encodeMovimientoStock)
}

// ── Download: full mirror with duplicate fusion ───────────────────────────────

// espejarColeccion fetches the entire cloud collection and reconciles it
// against the local rows:
//
//   - same id          → merge cloud fields onto local, mark synced (cloud
//     wins on shared fields); a row the merge leaves untouched is not saved
//     again, so a repeated cycle with no cloud changes writes nothing;
//   - same normalized name under a different id → duplicate fusion: the
//     local row is re-keyed under the canonical cloud identifier, and any
//     known foreign keys referencing the superseded id are rewritten;
//   - otherwise        → insert as new, already synced.
//
// Only used for the small reference collections; high-volume collections go
// through bajarVentana instead.
func espejarColeccion[T any, PT registroPtr[T]](
	e *Engine,
	ctx context.Context,
	coleccion string,
	apply func(cloudstore.Doc, PT) error,
	encode func(PT) cloudstore.Doc,
	nombreLocal func(PT) string,
	refs []fkRef,
) error {
	docs, err := e.cloud.GetAll(ctx, coleccion)
	if err != nil {
		return err
	}

	var locales []T
	if err := e.db.WithContext(ctx).Find(&locales).Error; err != nil {
		return err
	}
	porID := make(map[string]*T, len(locales))
	porNombre := make(map[string]*T, len(locales))
	for i := range locales {
		p := PT(&locales[i])
		porID[p.DocID()] = &locales[i]
		if nombreLocal != nil {
			if n := nombreLocal(p); n != "" {
				porNombre[n] = &locales[i]
			}
		}
	}

	ahora := time.Now().UTC()
	for id, doc := range docs {
		if local, ok := porID[id]; ok {
			p := PT(local)
			antes := encode(p)
			if err := apply(doc, p); err != nil {
				log.Warn().Err(err).Str("coleccion", coleccion).Str("id", id).Msg("sync: documento ilegible")
				continue
			}
			// Comparing the wire encodings before and after the merge tells
			// whether the cloud document actually changed anything; an
			// already-synced row that came through unchanged is skipped, so
			// repeated cycles do not restamp updated_at/synced_at.
			if !p.Pendiente() && reflect.DeepEqual(antes, encode(p)) {
				continue
			}
			p.MarkSynced(id, ahora)
			if err := e.db.WithContext(ctx).Save(p).Error; err != nil {
				return err
			}
			continue
		}

		if nombreLocal != nil {
			if dup, ok := porNombre[nombreDoc(doc)]; ok && nombreDoc(doc) != "" {
				if err := fusionar[T, PT](e, ctx, coleccion, id, doc, dup, apply, refs, ahora); err != nil {
					return err
				}
				continue
			}
		}

		var nuevo T
		p := PT(&nuevo)
		if err := p.SetDocID(id); err != nil {
			log.Warn().Str("coleccion", coleccion).Str("id", id).Msg("sync: identificador de nube invalido, documento ignorado")
			continue
		}
		if err := apply(doc, p); err != nil {
			log.Warn().Err(err).Str("coleccion", coleccion).Str("id", id).Msg("sync: documento ilegible")
			continue
		}
		p.MarkSynced(id, ahora)
		if err := e.db.WithContext(ctx).Create(p).Error; err != nil {
			return err
		}
	}
	return nil
}

// fusionar merges a local record into the canonical cloud identity that
// shares its normalized name: the row is deleted under its old key and
// re-inserted — with cloud fields applied on top — under the cloud id, and
// every known referencing column is rewritten to the canonical id in the
// same transaction. Not an error, but always worth a trace in the log.
func fusionar[T any, PT registroPtr[T]](
	e *Engine,
	ctx context.Context,
	coleccion string,
	cloudID string,
	doc cloudstore.Doc,
	local *T,
	apply func(cloudstore.Doc, PT) error,
	refs []fkRef,
	ahora time.Time,
) error {
	idViejo := PT(local).DocID()

	fusionado := *local
	p := PT(&fusionado)
	if err := p.SetDocID(cloudID); err != nil {
		log.Warn().Str("coleccion", coleccion).Str("id", cloudID).Msg("sync: identificador de nube invalido, fusion omitida")
		return nil
	}
	if err := apply(doc, p); err != nil {
		return err
	}
	p.MarkSynced(cloudID, ahora)

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(new(T), "id = ?", idViejo).Error; err != nil {
			return err
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		for _, ref := range refs {
			cambios := map[string]any{ref.Columna: cloudID}
			if ref.Replicada {
				cambios["sync_status"] = model.SyncPendiente
			}
			err := tx.Table(ref.Tabla).
				Where(ref.Columna+" = ?", idViejo).
				Updates(cambios).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Warn().
		Str("coleccion", coleccion).
		Str("id_local", idViejo).
		Str("id_nube", cloudID).
		Msg("sync: duplicado fusionado bajo identificador canonico")
	return nil
}

func (e *Engine) bajarCategorias(ctx context.Context) error {
	return espejarColeccion[model.Categoria](e, ctx, "categorias", applyCategoria, encodeCategoria,
		func(c *model.Categoria) string { return c.NombreNormalizado },
		[]fkRef{{"productos", "categoria_id", true}})
}

func (e *Engine) bajarMarcas(ctx context.Context) error {
	return espejarColeccion[model.Marca](e, ctx, "marcas", applyMarca, encodeMarca,
		func(m *model.Marca) string { return m.NombreNormalizado },
		[]fkRef{{"productos", "marca_id", true}})
}

func (e *Engine) bajarProveedores(ctx context.Context) error {
	return espejarColeccion[model.Proveedor](e, ctx, "proveedores", applyProveedor, encodeProveedor,
		func(p *model.Proveedor) string { return p.NombreNormalizado },
		[]fkRef{{"productos", "proveedor_id", true}})
}

func (e *Engine) bajarProductos(ctx context.Context) error {
	return espejarColeccion[model.Producto](e, ctx, "productos", applyProducto, encodeProducto,
		func(p *model.Producto) string { return p.NombreNormalizado },
		[]fkRef{{"venta_items", "producto_id", false}, {"movimientos_stock", "producto_id", true}})
}

func (e *Engine) bajarClientes(ctx context.Context) error {
	return espejarColeccion[model.Cliente](e, ctx, "clientes", applyCliente, encodeCliente,
		func(c *model.Cliente) string { return c.NombreNormalizado },
		[]fkRef{{"ventas", "cliente_id", true}, {"movimientos_cliente", "cliente_id", false}})
}

// Usuarios and config mirror by identifier only: a shared username or key is
// the identity itself, never a fusion candidate.
func (e *Engine) bajarUsuarios(ctx context.Context) error {
	return espejarColeccion[model.Usuario](e, ctx, "usuarios", applyUsuario, encodeUsuario, nil, nil)
}

func (e *Engine) bajarConfig(ctx context.Context) error {
	return espejarColeccion[model.ConfigEntry](e, ctx, "config", applyConfig, encodeConfig, nil, nil)
}

// ── Download: time-windowed (sandwich) ────────────────────────────────────────

// bajarVentana reconciles a high-volume time-series collection without ever
// fetching it whole: one bounded query forward of the newest local timestamp
// catches up on other devices' recent activity, one bounded query backward
// of the oldest backfills history. Documents are inserted only when no local
// record shares their id — a download never overwrites local rows, so
// pending local edits cannot be clobbered by a stale cloud read.
func bajarVentana[T any, PT registroPtr[T]](
	e *Engine,
	ctx context.Context,
	coleccion string,
	apply func(cloudstore.Doc, PT) error,
	fecha func(PT) time.Time,
) error {
	var bordes []T

	err := e.db.WithContext(ctx).Order("fecha DESC").Limit(1).Find(&bordes).Error
	if err != nil {
		return err
	}

	var snaps []cloudstore.Snapshot
	if len(bordes) == 0 {
		// Empty local collection: seed with the most recent window.
		snaps, err = e.cloud.Query(ctx, coleccion, "fecha", ">", fechaISO(time.Unix(0, 0)),
			"fecha", cloudstore.Desc, e.ventana)
		if err != nil {
			return err
		}
	} else {
		masNueva := fecha(PT(&bordes[0]))

		var masViejaFila []T
		err = e.db.WithContext(ctx).Order("fecha ASC").Limit(1).Find(&masViejaFila).Error
		if err != nil {
			return err
		}
		masVieja := fecha(PT(&masViejaFila[0]))

		adelante, err := e.cloud.Query(ctx, coleccion, "fecha", ">", fechaISO(masNueva),
			"fecha", cloudstore.Asc, e.ventana)
		if err != nil {
			return err
		}
		atras, err := e.cloud.Query(ctx, coleccion, "fecha", "<", fechaISO(masVieja),
			"fecha", cloudstore.Desc, e.ventana)
		if err != nil {
			return err
		}
		snaps = append(adelante, atras...)
	}

	ahora := time.Now().UTC()
	insertados := 0
	for _, snap := range snaps {
		var existentes int64
		err := e.db.WithContext(ctx).Model(new(T)).
			Where("id = ?", snap.ID).
			Count(&existentes).Error
		if err != nil {
			return err
		}
		if existentes > 0 {
			continue
		}

		var nuevo T
		p := PT(&nuevo)
		if err := p.SetDocID(snap.ID); err != nil {
			log.Warn().Str("coleccion", coleccion).Str("id", snap.ID).Msg("sync: identificador de nube invalido, documento ignorado")
			continue
		}
		if err := apply(snap.Data, p); err != nil {
			log.Warn().Err(err).Str("coleccion", coleccion).Str("id", snap.ID).Msg("sync: documento ilegible")
			continue
		}
		p.MarkSynced(snap.ID, ahora)
		if err := e.db.WithContext(ctx).Create(p).Error; err != nil {
			return err
		}
		insertados++
	}
	if insertados > 0 {
		log.Info().Str("coleccion", coleccion).Int("registros", insertados).Msg("sync: ventana descargada")
	}
	return nil
}

func (e *Engine) bajarVentas(ctx context.Context) error {
	return bajarVentana[model.Venta](e, ctx, "ventas", applyVenta,
		func(v *model.Venta) time.Time { return v.Fecha })
}

func (e *Engine) bajarKardex(ctx context.Context) error {
	return bajarVentana[model.MovimientoStock](e, ctx, "movimientos_stock", applyMovimientoStock,
		func(m *model.MovimientoStock) time.Time { return m.Fecha })
}
