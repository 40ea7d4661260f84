package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

type movementRepo struct {
	st       *state
	readOnly bool
}

func (r *movementRepo) Create(_ context.Context, m *entity.MovementEntry) error {
	if r.readOnly {
		return errReadOnly
	}
	r.st.seq++
	m.Sequence = r.st.seq
	c := *m
	if m.LocationID != nil {
		loc := *m.LocationID
		c.LocationID = &loc
	}
	r.st.movements = append(r.st.movements, &c)
	return nil
}

func (r *movementRepo) ListByReference(_ context.Context, tenantID string, refType entity.ReferenceType, refID string) ([]*entity.MovementEntry, error) {
	var out []*entity.MovementEntry
	for _, m := range r.st.movements {
		if m.TenantID == tenantID && m.ReferenceType == refType && m.ReferenceID == refID {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.MovementEntry, error) {
	var out []*entity.MovementEntry
	for i := len(r.st.movements) - 1; i >= 0; i-- {
		m := r.st.movements[i]
		if m.TenantID != f.TenantID || m.ItemID != f.ItemID {
			continue
		}
		if f.SiteID != "" && m.SiteID != f.SiteID {
			continue
		}
		if f.LocationID != nil && (m.LocationID == nil || *m.LocationID != *f.LocationID) {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *movementRepo) Stream(_ context.Context, tenantID string, fn func(*entity.MovementEntry) error) error {
	for _, m := range r.st.movements {
		if m.TenantID != tenantID {
			continue
		}
		c := *m
		if err := fn(&c); err != nil {
			return err
		}
	}
	return nil
}

type balanceRepo struct {
	st       *state
	readOnly bool
}

func (r *balanceRepo) Get(_ context.Context, key entity.BalanceKey) (*entity.Balance, error) {
	b, ok := r.st.balances[key]
	if !ok {
		return nil, nil
	}
	return b.Clone(), nil
}

func (r *balanceRepo) GetForUpdate(_ context.Context, key entity.BalanceKey) (*entity.Balance, error) {
	if r.readOnly {
		return nil, errReadOnly
	}
	b, ok := r.st.balances[key]
	if !ok {
		b = entity.NewBalance(key)
		r.st.balances[key] = b
	}
	return b.Clone(), nil
}

func (r *balanceRepo) Save(_ context.Context, b *entity.Balance) error {
	if r.readOnly {
		return errReadOnly
	}
	if cur, ok := r.st.balances[b.Key]; ok && cur.Version != b.Version {
		return domain.ErrConcurrentModification
	}
	b.Version++
	r.st.balances[b.Key] = b.Clone()
	return nil
}

func (r *balanceRepo) ListBySite(_ context.Context, tenantID, itemID, siteID string) ([]*entity.Balance, error) {
	var out []*entity.Balance
	for k, b := range r.st.balances {
		if k.TenantID == tenantID && k.ItemID == itemID && k.SiteID == siteID {
			out = append(out, b.Clone())
		}
	}
	sortBalances(out)
	return out, nil
}

func (r *balanceRepo) ListByTenant(_ context.Context, tenantID string) ([]*entity.Balance, error) {
	var out []*entity.Balance
	for k, b := range r.st.balances {
		if k.TenantID == tenantID {
			out = append(out, b.Clone())
		}
	}
	sortBalances(out)
	return out, nil
}

func (r *balanceRepo) Candidates(_ context.Context, tenantID, itemID, siteID string) ([]entity.AllocationCandidate, error) {
	var out []entity.AllocationCandidate
	for k, b := range r.st.balances {
		if k.TenantID != tenantID || k.ItemID != itemID || k.SiteID != siteID || k.LocationID == "" {
			continue
		}
		if !b.Available().IsPositive() {
			continue
		}
		code := k.LocationID
		if loc, ok := r.st.locations[k.LocationID]; ok {
			code = loc.Code
		}
		out = append(out, entity.AllocationCandidate{
			LocationID:      k.LocationID,
			LocationCode:    code,
			Available:       b.Available(),
			OldestReceiptAt: r.oldestReceipt(k),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationCode < out[j].LocationCode })
	return out, nil
}

// oldestReceipt fecha del primer ingreso posterior a la última vez que la ubicación quedó
// sin stock físico; lo recibido antes de vaciarse ya salió.
func (r *balanceRepo) oldestReceipt(k entity.BalanceKey) *time.Time {
	var (
		running decimal.Decimal
		oldest  *time.Time
	)
	for _, m := range r.st.movements {
		if m.Key() != k || m.Bucket != entity.BucketOnHand {
			continue
		}
		running = running.Add(m.QuantityBase)
		if !running.IsPositive() {
			oldest = nil
			continue
		}
		if oldest == nil && m.QuantityBase.IsPositive() &&
			(m.Kind == entity.MovementReceipt || m.Kind == entity.MovementTransferReceive) {
			t := m.CreatedAt
			oldest = &t
		}
	}
	return oldest
}

func (r *balanceRepo) ReplaceAll(_ context.Context, tenantID string, balances []*entity.Balance) error {
	if r.readOnly {
		return errReadOnly
	}
	for k := range r.st.balances {
		if k.TenantID == tenantID {
			delete(r.st.balances, k)
		}
	}
	for _, b := range balances {
		c := b.Clone()
		c.Version = 1
		r.st.balances[b.Key] = c
	}
	return nil
}

func sortBalances(list []*entity.Balance) {
	sort.Slice(list, func(i, j int) bool { return list[i].Key.Less(list[j].Key) })
}

type orderRepo struct {
	st       *state
	readOnly bool
}

func (r *orderRepo) Create(_ context.Context, o *entity.SalesOrder) error {
	if r.readOnly {
		return errReadOnly
	}
	if _, ok := r.st.orders[o.ID]; ok {
		return fmt.Errorf("orden %s duplicada", o.ID)
	}
	o.Version = 1
	r.st.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *orderRepo) Get(_ context.Context, tenantID, id string) (*entity.SalesOrder, error) {
	o, ok := r.st.orders[id]
	if !ok || o.TenantID != tenantID {
		return nil, fmt.Errorf("%w: orden %s", domain.ErrNotFound, id)
	}
	return cloneOrder(o), nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.SalesOrder, error) {
	return r.Get(ctx, tenantID, id)
}

func (r *orderRepo) OrderIDByLine(_ context.Context, tenantID, lineID string) (string, error) {
	for _, o := range r.st.orders {
		if o.TenantID != tenantID {
			continue
		}
		if o.Line(lineID) != nil {
			return o.ID, nil
		}
	}
	return "", fmt.Errorf("%w: línea %s", domain.ErrNotFound, lineID)
}

func (r *orderRepo) Update(_ context.Context, o *entity.SalesOrder) error {
	if r.readOnly {
		return errReadOnly
	}
	cur, ok := r.st.orders[o.ID]
	if !ok {
		return fmt.Errorf("%w: orden %s", domain.ErrNotFound, o.ID)
	}
	if cur.Version != o.Version {
		return domain.ErrConcurrentModification
	}
	o.Version++
	r.st.orders[o.ID] = cloneOrder(o)
	return nil
}

type transferRepo struct {
	st       *state
	readOnly bool
}

func (r *transferRepo) Create(_ context.Context, t *entity.TransferOrder) error {
	if r.readOnly {
		return errReadOnly
	}
	t.Version = 1
	r.st.transfers[t.ID] = cloneTransfer(t)
	return nil
}

func (r *transferRepo) Get(_ context.Context, tenantID, id string) (*entity.TransferOrder, error) {
	t, ok := r.st.transfers[id]
	if !ok || t.TenantID != tenantID {
		return nil, fmt.Errorf("%w: transferencia %s", domain.ErrNotFound, id)
	}
	return cloneTransfer(t), nil
}

func (r *transferRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.TransferOrder, error) {
	return r.Get(ctx, tenantID, id)
}

func (r *transferRepo) Update(_ context.Context, t *entity.TransferOrder) error {
	if r.readOnly {
		return errReadOnly
	}
	cur, ok := r.st.transfers[t.ID]
	if !ok {
		return fmt.Errorf("%w: transferencia %s", domain.ErrNotFound, t.ID)
	}
	if cur.Version != t.Version {
		return domain.ErrConcurrentModification
	}
	t.Version++
	r.st.transfers[t.ID] = cloneTransfer(t)
	return nil
}

type countRepo struct {
	st       *state
	readOnly bool
}

func (r *countRepo) Create(_ context.Context, c *entity.CycleCount) error {
	if r.readOnly {
		return errReadOnly
	}
	r.st.counts[c.ID] = cloneCount(c)
	return nil
}

func (r *countRepo) Get(_ context.Context, tenantID, id string) (*entity.CycleCount, error) {
	c, ok := r.st.counts[id]
	if !ok || c.TenantID != tenantID {
		return nil, fmt.Errorf("%w: conteo %s", domain.ErrNotFound, id)
	}
	return cloneCount(c), nil
}

func (r *countRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.CycleCount, error) {
	return r.Get(ctx, tenantID, id)
}

func (r *countRepo) CountIDByLine(_ context.Context, tenantID, lineID string) (string, error) {
	for _, c := range r.st.counts {
		if c.TenantID == tenantID && c.Line(lineID) != nil {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("%w: línea de conteo %s", domain.ErrNotFound, lineID)
}

func (r *countRepo) Update(_ context.Context, c *entity.CycleCount) error {
	if r.readOnly {
		return errReadOnly
	}
	if _, ok := r.st.counts[c.ID]; !ok {
		return fmt.Errorf("%w: conteo %s", domain.ErrNotFound, c.ID)
	}
	r.st.counts[c.ID] = cloneCount(c)
	return nil
}

type catalogRepo struct {
	st       *state
	readOnly bool
}

func (r *catalogRepo) CreateItem(_ context.Context, it *entity.Item) error {
	if r.readOnly {
		return errReadOnly
	}
	for _, e := range r.st.items {
		if e.TenantID == it.TenantID && e.SKU == it.SKU {
			return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, it.SKU)
		}
	}
	c := *it
	r.st.items[it.ID] = &c
	return nil
}

func (r *catalogRepo) CreateWarehouse(_ context.Context, w *entity.Warehouse) error {
	if r.readOnly {
		return errReadOnly
	}
	for _, e := range r.st.warehouses {
		if e.TenantID == w.TenantID && e.Code == w.Code {
			return fmt.Errorf("%w: bodega %s", domain.ErrDuplicate, w.Code)
		}
	}
	c := *w
	r.st.warehouses[w.ID] = &c
	return nil
}

func (r *catalogRepo) CreateLocation(_ context.Context, l *entity.Location) error {
	if r.readOnly {
		return errReadOnly
	}
	for _, e := range r.st.locations {
		if e.TenantID == l.TenantID && e.SiteID == l.SiteID && e.Code == l.Code {
			return fmt.Errorf("%w: ubicación %s", domain.ErrDuplicate, l.Code)
		}
	}
	c := *l
	r.st.locations[l.ID] = &c
	return nil
}

func (r *catalogRepo) ListItems(_ context.Context, tenantID string, limit, offset int) ([]*entity.Item, error) {
	var out []*entity.Item
	for _, it := range r.st.items {
		if it.TenantID == tenantID {
			c := *it
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return paginate(out, limit, offset), nil
}

func (r *catalogRepo) ListWarehouses(_ context.Context, tenantID string) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	for _, w := range r.st.warehouses {
		if w.TenantID == tenantID {
			c := *w
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *catalogRepo) ListLocations(_ context.Context, tenantID, siteID string) ([]*entity.Location, error) {
	var out []*entity.Location
	for _, l := range r.st.locations {
		if l.TenantID == tenantID && l.SiteID == siteID {
			c := *l
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *catalogRepo) GetItem(_ context.Context, tenantID, id string) (*entity.Item, error) {
	it, ok := r.st.items[id]
	if !ok || it.TenantID != tenantID {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, id)
	}
	c := *it
	return &c, nil
}

func (r *catalogRepo) GetItemBySKU(_ context.Context, tenantID, sku string) (*entity.Item, error) {
	for _, it := range r.st.items {
		if it.TenantID == tenantID && it.SKU == sku {
			c := *it
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: sku %s", domain.ErrNotFound, sku)
}

func (r *catalogRepo) GetWarehouse(_ context.Context, tenantID, id string) (*entity.Warehouse, error) {
	w, ok := r.st.warehouses[id]
	if !ok || w.TenantID != tenantID {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, id)
	}
	c := *w
	return &c, nil
}

func (r *catalogRepo) GetLocation(_ context.Context, tenantID, id string) (*entity.Location, error) {
	l, ok := r.st.locations[id]
	if !ok || l.TenantID != tenantID {
		return nil, fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
	}
	c := *l
	return &c, nil
}

func (r *catalogRepo) GetLocationByCode(_ context.Context, tenantID, siteID, code string) (*entity.Location, error) {
	for _, l := range r.st.locations {
		if l.TenantID == tenantID && l.SiteID == siteID && l.Code == code {
			c := *l
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, code)
}

type userRepo struct {
	st       *state
	readOnly bool
}

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	if r.readOnly {
		return errReadOnly
	}
	for _, e := range r.st.users {
		if e.TenantID == u.TenantID && strings.EqualFold(e.Email, u.Email) {
			return fmt.Errorf("%w: email %s", domain.ErrDuplicate, u.Email)
		}
	}
	c := *u
	r.st.users[u.ID] = &c
	return nil
}

func (r *userRepo) GetByID(_ context.Context, tenantID, id string) (*entity.User, error) {
	u, ok := r.st.users[id]
	if !ok || u.TenantID != tenantID {
		return nil, fmt.Errorf("%w: usuario %s", domain.ErrNotFound, id)
	}
	c := *u
	return &c, nil
}

func (r *userRepo) GetByEmail(_ context.Context, tenantID, email string) (*entity.User, error) {
	for _, u := range r.st.users {
		if u.TenantID == tenantID && strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: usuario %s", domain.ErrNotFound, email)
}

func (r *userRepo) ListByTenant(_ context.Context, tenantID string, limit, offset int) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range r.st.users {
		if u.TenantID == tenantID {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return paginate(out, limit, offset), nil
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
