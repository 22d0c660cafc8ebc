package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-quotes/internal/db"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Product A links Blackout (Ivory, Charcoal) and Sheer (Sand).
// Product B links Linen (Flax) and only the Sheer Cloud fabric.
const testCatalog = `
fabrics:
  - {code: BO-1, color_name: Ivory, collection: Blackout}
  - {code: BO-2, color_name: Charcoal, collection: Blackout}
  - {code: BO-3, color_name: Amber, collection: Blackout}
  - {code: SH-1, color_name: Sand, collection: Sheer}
  - {code: SH-2, color_name: Cloud, collection: Sheer}
  - {code: LN-1, color_name: Flax, collection: Linen}
products:
  - {code: A, name: System A, fabrics: [BO-1, BO-2, SH-1]}
  - {code: B, name: System B, fabrics: [LN-1, SH-2, BO-3]}
`

func setupCatalog(t *testing.T) (*gorm.DB, *Service) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	_, err = db.SeedCatalog(context.Background(), conn, strings.NewReader(testCatalog))
	require.NoError(t, err)
	return conn, NewService(NewGormStore(conn), time.Minute)
}

func productByCode(t *testing.T, conn *gorm.DB, code string) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, conn.Where("code = ?", code).First(&p).Error)
	return p
}

func TestServiceCollectionsDistinctSorted(t *testing.T) {
	conn, svc := setupCatalog(t)
	a := productByCode(t, conn, "A")

	cols, err := svc.Collections(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Blackout", "Sheer"}, cols)
}

func TestServiceColorsIntersectProductAndCollection(t *testing.T) {
	conn, svc := setupCatalog(t)
	a := productByCode(t, conn, "A")

	colors, err := svc.Colors(context.Background(), a.ID, "Blackout")
	require.NoError(t, err)
	var names []string
	for _, f := range colors {
		names = append(names, f.ColorName)
	}
	// Amber is Blackout but only linked to B.
	assert.Equal(t, []string{"Charcoal", "Ivory"}, names)

	empty, err := svc.Colors(context.Background(), a.ID, "Linen")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestServiceUnknownProduct(t *testing.T) {
	_, svc := setupCatalog(t)
	cols, err := svc.Collections(context.Background(), 999)
	require.NoError(t, err)
	assert.Empty(t, cols)

	_, err = svc.Product(context.Background(), 999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestServiceProductsMemoized(t *testing.T) {
	conn, svc := setupCatalog(t)
	products, err := svc.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "System A", products[0].Name)

	require.NoError(t, conn.Create(&models.Product{Name: "System C", Code: "C"}).Error)
	products, _ = svc.Products(context.Background())
	assert.Len(t, products, 2, "cached list until invalidated")

	svc.Invalidate()
	products, _ = svc.Products(context.Background())
	assert.Len(t, products, 3)
}

func TestReplayDropsDownstreamOfChangedField(t *testing.T) {
	conn, svc := setupCatalog(t)
	ctx := context.Background()
	a := productByCode(t, conn, "A")
	b := productByCode(t, conn, "B")

	full := Replay(ctx, svc, Request{ProductID: a.ID, Collection: "Blackout"})
	require.Equal(t, CollectionChosen, full.Stage)
	require.NotEmpty(t, full.Colors)
	ivory := full.Colors[1]

	chosen := Replay(ctx, svc, Request{ProductID: a.ID, Collection: "Blackout", FabricID: ivory.ID, Changed: FieldColor})
	assert.Equal(t, ColorChosen, chosen.Stage)
	assert.Equal(t, "Ivory", chosen.FabricColor)
	assert.Equal(t, "BO-1", chosen.FabricCode)
	assert.Equal(t, "A", chosen.SystemType)

	// Switching to B: Blackout and the color are discarded.
	switched := Replay(ctx, svc, Request{ProductID: b.ID, Collection: "Blackout", FabricID: ivory.ID, Changed: FieldSystem})
	assert.Equal(t, SystemChosen, switched.Stage)
	assert.Empty(t, switched.Collection)
	assert.Empty(t, switched.Colors)
	assert.Empty(t, switched.FabricCode)
	assert.Equal(t, []string{"Blackout", "Linen", "Sheer"}, switched.Collections)

	coll := Replay(ctx, svc, Request{ProductID: a.ID, Collection: "Sheer", FabricID: ivory.ID, Changed: FieldCollection})
	assert.Equal(t, CollectionChosen, coll.Stage)
	assert.Zero(t, coll.FabricID)
	require.Len(t, coll.Colors, 1)
	assert.Equal(t, "Sand", coll.Colors[0].ColorName)
}

func TestReplayDetectsSystemChangeFromPreviousProduct(t *testing.T) {
	conn, svc := setupCatalog(t)
	ctx := context.Background()
	a := productByCode(t, conn, "A")
	b := productByCode(t, conn, "B")

	full := Replay(ctx, svc, Request{ProductID: a.ID, Collection: "Sheer"})
	require.NotEmpty(t, full.Colors)
	sand := full.Colors[0]

	// B also offers Sheer, but the form was rendered for A, so the
	// collection and color are dropped even though Changed names the color.
	st := Replay(ctx, svc, Request{
		ProductID: b.ID, Collection: "Sheer", FabricID: sand.ID,
		Changed: FieldColor, PreviousProductID: a.ID,
	})
	assert.Equal(t, SystemChosen, st.Stage)
	assert.Equal(t, "B", st.SystemType)
	assert.Empty(t, st.Collection)
	assert.Zero(t, st.FabricID)
	assert.Empty(t, st.FabricCode)

	same := Replay(ctx, svc, Request{
		ProductID: a.ID, Collection: "Sheer", FabricID: sand.ID,
		Changed: FieldColor, PreviousProductID: a.ID,
	})
	assert.Equal(t, ColorChosen, same.Stage)
	assert.Equal(t, sand.Code, same.FabricCode)
}

func TestReplayIgnoresCollectionOfOtherSystem(t *testing.T) {
	conn, svc := setupCatalog(t)
	a := productByCode(t, conn, "A")
	st := Replay(context.Background(), svc, Request{ProductID: a.ID, Collection: "Linen"})
	assert.Equal(t, SystemChosen, st.Stage)
	assert.Empty(t, st.Collection)
}

func TestReplayUnknownProduct(t *testing.T) {
	_, svc := setupCatalog(t)
	st := Replay(context.Background(), svc, Request{ProductID: 404})
	assert.Equal(t, NoSystem, st.Stage)
	assert.ErrorIs(t, st.CollectionsErr, ErrProductNotFound)
}
