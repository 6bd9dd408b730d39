package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/dmitrijs2005/bizkeeper/internal/netx"
	"github.com/google/uuid"
)

var collectionNames = map[string]models.Collection{
	"projects":          models.CollectionProjects,
	"invoices":          models.CollectionInvoices,
	"quotations":        models.CollectionQuotations,
	"incoming_payments": models.CollectionIncomingPayments,
	"outgoing_payments": models.CollectionOutgoingPayments,
	"departments":       models.CollectionDepartments,
	"settings":          models.CollectionSettings,
	"profile":           models.CollectionProfile,
}

func parseCollection(name string) (models.Collection, bool) {
	c, ok := collectionNames[name]
	return c, ok
}

func (a *App) requireLogin() bool {
	if !a.isLoggedIn() {
		fmt.Println("Please log in first.")
		return false
	}
	return true
}

func (a *App) list(ctx context.Context, args []string) {
	if !a.requireLogin() {
		return
	}
	if len(args) != 1 {
		fmt.Println("usage: list <collection>")
		return
	}
	col, ok := parseCollection(args[0])
	if !ok {
		fmt.Println("unknown collection:", args[0])
		return
	}

	recs, err := a.records.ListAll(ctx, col, a.ownerID)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	n := 0
	for _, r := range recs {
		if r.Deleted {
			continue
		}
		dirty := ""
		if !r.Synced {
			dirty = " *"
		}
		fmt.Printf("%s  updated %s%s\n", r.ID, r.LastUpdated.Format(time.RFC3339), dirty)
		n++
	}
	fmt.Printf("%d record(s)\n", n)
}

func (a *App) show(ctx context.Context, args []string) {
	if !a.requireLogin() {
		return
	}
	if len(args) != 2 {
		fmt.Println("usage: show <collection> <id>")
		return
	}
	col, ok := parseCollection(args[0])
	if !ok {
		fmt.Println("unknown collection:", args[0])
		return
	}

	id := args[1]
	if col.Singleton() {
		id = models.SingletonID
	}

	rec, err := a.records.Get(ctx, col, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			fmt.Println("not found")
			return
		}
		fmt.Println("error:", err)
		return
	}
	if rec.Deleted {
		fmt.Println("record is deleted")
		return
	}

	var pretty map[string]any
	if err := json.Unmarshal(rec.Payload, &pretty); err != nil {
		fmt.Println(string(rec.Payload))
	} else {
		b, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(b))
	}
	fmt.Printf("updated: %s  synced: %v\n", rec.LastUpdated.Format(time.RFC3339), rec.Synced)
}

func (a *App) addProject(ctx context.Context) {
	if !a.requireLogin() {
		return
	}

	name, err := GetSimpleText(a.reader, "Project name", os.Stdout)
	if err != nil {
		fmt.Println("input error:", err)
		return
	}
	client, err := GetSimpleText(a.reader, "Client", os.Stdout)
	if err != nil {
		fmt.Println("input error:", err)
		return
	}

	payload, err := json.Marshal(models.Project{Name: name, Client: client})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	id, err := a.putNew(ctx, models.CollectionProjects, payload)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Created project", id)
}

func (a *App) addInvoice(ctx context.Context) {
	if !a.requireLogin() {
		return
	}

	number, err := GetSimpleText(a.reader, "Invoice number", os.Stdout)
	if err != nil {
		fmt.Println("input error:", err)
		return
	}
	amountStr, err := GetSimpleText(a.reader, "Amount in cents", os.Stdout)
	if err != nil {
		fmt.Println("input error:", err)
		return
	}
	amount, err := strconv.ParseInt(amountStr, 10, 64)
	if err != nil {
		fmt.Println("invalid amount:", amountStr)
		return
	}
	currency, err := GetSimpleText(a.reader, "Currency", os.Stdout)
	if err != nil {
		fmt.Println("input error:", err)
		return
	}

	payload, err := json.Marshal(models.Invoice{
		Number:      number,
		AmountCents: amount,
		Currency:    currency,
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	id, err := a.putNew(ctx, models.CollectionInvoices, payload)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Created invoice", id)
}

// putNew stores a freshly created record marked dirty so the next sync cycle
// picks it up.
func (a *App) putNew(ctx context.Context, col models.Collection, payload json.RawMessage) (string, error) {
	rec := &models.Record{
		ID:      uuid.NewString(),
		OwnerID: a.ownerID,
		Payload: payload,
	}
	if col.Singleton() {
		rec.ID = models.SingletonID
	}
	rec.Touch(time.Now().UTC())

	if err := a.records.Put(ctx, col, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// edit sets a single top-level payload field and marks the record dirty.
func (a *App) edit(ctx context.Context, args []string) {
	if !a.requireLogin() {
		return
	}
	if len(args) < 4 {
		fmt.Println("usage: edit <collection> <id> <field> <value>")
		return
	}
	col, ok := parseCollection(args[0])
	if !ok {
		fmt.Println("unknown collection:", args[0])
		return
	}

	id := args[1]
	if col.Singleton() {
		id = models.SingletonID
	}

	rec, err := a.records.Get(ctx, col, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			fmt.Println("not found")
			return
		}
		fmt.Println("error:", err)
		return
	}
	if rec.Deleted {
		fmt.Println("record is deleted")
		return
	}

	var payload map[string]any
	if len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, &payload); err != nil {
			fmt.Println("error:", err)
			return
		}
	}
	if payload == nil {
		payload = map[string]any{}
	}
	payload[args[2]] = strings.Join(args[3:], " ")

	raw, err := json.Marshal(payload)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	rec.Payload = raw
	rec.Touch(time.Now().UTC())

	if err := a.records.Put(ctx, col, rec); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Updated", rec.ID)
}

// delete soft-deletes a record. The tombstone replicates like any other
// write, so the deletion reaches other devices through the normal cycle.
func (a *App) delete(ctx context.Context, args []string) {
	if !a.requireLogin() {
		return
	}
	if len(args) != 2 {
		fmt.Println("usage: delete <collection> <id>")
		return
	}
	col, ok := parseCollection(args[0])
	if !ok {
		fmt.Println("unknown collection:", args[0])
		return
	}
	if col.Singleton() {
		fmt.Println("singleton collections cannot be deleted")
		return
	}

	rec, err := a.records.Get(ctx, col, args[1])
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			fmt.Println("not found")
			return
		}
		fmt.Println("error:", err)
		return
	}

	rec.Deleted = true
	rec.Touch(time.Now().UTC())
	if err := a.records.Put(ctx, col, rec); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Deleted", rec.ID)
}

// attach uploads a file to object storage via a presigned URL and stores the
// resulting key in the record payload.
func (a *App) attach(ctx context.Context, args []string) {
	if !a.requireLogin() {
		return
	}
	if len(args) != 3 {
		fmt.Println("usage: attach <collection> <id> <file>")
		return
	}
	col, ok := parseCollection(args[0])
	if !ok {
		fmt.Println("unknown collection:", args[0])
		return
	}

	rec, err := a.records.Get(ctx, col, args[1])
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			fmt.Println("not found")
			return
		}
		fmt.Println("error:", err)
		return
	}

	data, err := os.ReadFile(args[2])
	if err != nil {
		fmt.Println("cannot read file:", err)
		return
	}

	key, putURL, err := a.api.PresignPut(ctx)
	if err != nil {
		fmt.Println("error requesting upload URL:", err)
		return
	}
	if err := netx.UploadToPresignedURL(ctx, putURL, data); err != nil {
		fmt.Println("upload failed:", err)
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		fmt.Println("error:", err)
		return
	}
	payload["receipt_key"] = key

	raw, err := json.Marshal(payload)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	rec.Payload = raw
	rec.Touch(time.Now().UTC())

	if err := a.records.Put(ctx, col, rec); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Attached, key:", key)
}
