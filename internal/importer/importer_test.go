package importer

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"

	"empress-storefront/internal/domain"
	"empress-storefront/internal/repository/slot"
)

type stubCouponRepo struct {
	items []domain.Coupon
	err   error
}

func (s *stubCouponRepo) Upsert(_ context.Context, c domain.Coupon) error {
	if s.err != nil {
		return s.err
	}
	s.items = append(s.items, c)
	return nil
}

func TestCouponImporter_Run(t *testing.T) {
	csvData := `code,type,discount,minOrder
save10,percentage,10,50
,,,
WELCOME5, fixed ,5,
`
	repo := &stubCouponRepo{}
	count, err := NewCouponImporter(strings.NewReader(csvData), repo).Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 || len(repo.items) != 2 {
		t.Fatalf("expected 2 coupons imported, got %d", count)
	}
	if repo.items[0].Code != "SAVE10" || repo.items[0].Type != domain.CouponPercentage || repo.items[0].Discount != 10 || repo.items[0].MinOrder != 50 {
		t.Fatalf("unexpected first coupon %+v", repo.items[0])
	}
	if repo.items[1].Type != domain.CouponFixed || repo.items[1].MinOrder != 0 {
		t.Fatalf("unexpected second coupon %+v", repo.items[1])
	}
}

func TestCouponImporter_RejectsInvalidRows(t *testing.T) {
	cases := map[string]string{
		"unknown type":  "code,type,discount\nX,bogus,5\n",
		"zero discount": "code,type,discount\nX,fixed,0\n",
		"percent > 100": "code,type,discount\nX,percentage,150\n",
		"missing code":  "type,discount\nfixed,5\n",
	}
	for name, data := range cases {
		if _, err := NewCouponImporter(strings.NewReader(data), &stubCouponRepo{}).Run(context.Background()); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	repo := &stubCouponRepo{err: errors.New("db down")}
	if _, err := NewCouponImporter(strings.NewReader("code,type,discount\nX,fixed,5\n"), repo).Run(context.Background()); err == nil {
		t.Fatalf("expected upsert error to surface")
	}
}

func TestStorageImporter_Run(t *testing.T) {
	export := `{
  "empress_cart_guest": "[{\"productId\":\"p1\",\"quantity\":2,\"price\":10},{\"productId\":\"p1\",\"quantity\":5,\"price\":10}]",
  "empress_cart_user123": [{"cartItemId":"p2_red_M","productId":"p2","quantity":1,"selectedColor":"red","selectedSize":"M"},{"productId":"p3","quantity":0}],
  "token": "tok-1",
  "theme": "dark"
}`
	base := slot.NewMemory()
	scoped := slot.Scoped(base, "sess")

	keys, err := NewStorageImporter(scoped).Run(context.Background(), strings.NewReader(export))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("expected 3 imported keys, got %v", keys)
	}

	stored := base.Keys()
	sort.Strings(stored)
	if strings.Join(stored, ",") != "sess:empress_cart_guest,sess:empress_cart_user123,sess:token" {
		t.Fatalf("unexpected stored keys %v", stored)
	}

	raw, _ := base.Get(context.Background(), "sess:empress_cart_guest")
	var guest []domain.CartItem
	if err := json.Unmarshal(raw, &guest); err != nil {
		t.Fatalf("decode guest: %v", err)
	}
	if len(guest) != 1 || guest[0].CartItemID != "p1_default_default" || guest[0].Quantity != 2 {
		t.Fatalf("unexpected guest cart %+v", guest)
	}

	raw, _ = base.Get(context.Background(), "sess:empress_cart_user123")
	var user []domain.CartItem
	if err := json.Unmarshal(raw, &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if len(user) != 1 || user[0].CartItemID != "p2_red_M" {
		t.Fatalf("unexpected user cart %+v", user)
	}
}

func TestStorageImporter_RejectsBadCart(t *testing.T) {
	_, err := NewStorageImporter(slot.NewMemory()).Run(context.Background(), strings.NewReader(`{"empress_cart_guest": "nope"}`))
	if err == nil {
		t.Fatalf("expected decode error")
	}
}
