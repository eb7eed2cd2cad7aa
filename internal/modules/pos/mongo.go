package pos

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the collection holding transaction documents.
const CollectionName = "transactions"

type itemDocument struct {
	ProductID   string               `bson:"productId"`
	ProductName string               `bson:"productName"`
	Quantity    int                  `bson:"quantity"`
	UnitPrice   primitive.Decimal128 `bson:"unitPrice"`
	LineTotal   primitive.Decimal128 `bson:"lineTotal"`
}

type transactionDocument struct {
	ID         string               `bson:"id"`
	Timestamp  int64                `bson:"timestamp"`
	StoreID    string               `bson:"storeId"`
	StoreName  string               `bson:"storeName"`
	BranchID   string               `bson:"branchId"`
	BranchName string               `bson:"branchName"`
	Items      []itemDocument       `bson:"items"`
	Subtotal   primitive.Decimal128 `bson:"subtotal"`
	Discount   primitive.Decimal128 `bson:"discount"`
	Total      primitive.Decimal128 `bson:"total"`
	Status     string               `bson:"status"`
	VoidedAt   *int64               `bson:"voidedAt,omitempty"`
	VoidReason string               `bson:"voidReason,omitempty"`
}

type mongoRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoRepository stores transactions as documents in coll.
func NewMongoRepository(coll *mongo.Collection) Repository {
	return &mongoRepo{coll: coll, now: time.Now}
}

// EnsureIndexes creates the unique id index and the scope listing index.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "storeId", Value: 1}, {Key: "branchId", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	return err
}

func (r *mongoRepo) List(ctx context.Context, f Filter) ([]Transaction, error) {
	filter := bson.M{}
	if f.StoreID != "" {
		filter["storeId"] = f.StoreID
	}
	if f.BranchID != "" {
		filter["branchId"] = f.BranchID
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "id", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	txs := []Transaction{}
	for cur.Next(ctx) {
		var doc transactionDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		t, err := doc.transaction()
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, cur.Err()
}

func (r *mongoRepo) Create(ctx context.Context, d Draft) (Transaction, error) {
	t := newTransaction(d, r.now())
	for attempt := 0; ; attempt++ {
		doc, err := newTransactionDocument(t)
		if err != nil {
			return Transaction{}, err
		}
		_, err = r.coll.InsertOne(ctx, doc)
		if err == nil {
			return t, nil
		}
		if !mongo.IsDuplicateKeyError(err) || attempt == 2 {
			return Transaction{}, err
		}
		t.ID = NewTransactionID(r.now())
	}
}

func (r *mongoRepo) Void(ctx context.Context, id, reason string) error {
	set := bson.M{"status": string(StatusVoided), "voidedAt": r.now().UnixMilli()}
	if reason != "" {
		set["voidReason"] = reason
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "status": string(StatusCompleted)},
		bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func newTransactionDocument(t Transaction) (transactionDocument, error) {
	doc := transactionDocument{
		ID:         t.ID,
		Timestamp:  t.Timestamp,
		StoreID:    t.StoreID,
		StoreName:  t.StoreName,
		BranchID:   t.BranchID,
		BranchName: t.BranchName,
		Status:     string(t.Status),
		VoidedAt:   t.VoidedAt,
		VoidReason: t.VoidReason,
	}
	var err error
	if doc.Subtotal, err = toDecimal128(t.Subtotal); err != nil {
		return doc, err
	}
	if doc.Discount, err = toDecimal128(t.Discount); err != nil {
		return doc, err
	}
	if doc.Total, err = toDecimal128(t.Total); err != nil {
		return doc, err
	}
	for _, it := range t.Items {
		item := itemDocument{ProductID: it.ProductID, ProductName: it.ProductName, Quantity: it.Quantity}
		if item.UnitPrice, err = toDecimal128(it.UnitPrice); err != nil {
			return doc, err
		}
		if item.LineTotal, err = toDecimal128(it.LineTotal); err != nil {
			return doc, err
		}
		doc.Items = append(doc.Items, item)
	}
	return doc, nil
}

func (doc transactionDocument) transaction() (Transaction, error) {
	t := Transaction{
		ID:        doc.ID,
		Timestamp: doc.Timestamp,
		Draft: Draft{
			StoreID:    doc.StoreID,
			StoreName:  doc.StoreName,
			BranchID:   doc.BranchID,
			BranchName: doc.BranchName,
			Items:      make([]TransactionItem, 0, len(doc.Items)),
		},
		Status:     Status(doc.Status),
		VoidedAt:   doc.VoidedAt,
		VoidReason: doc.VoidReason,
	}
	var err error
	if t.Subtotal, err = fromDecimal128(doc.Subtotal); err != nil {
		return t, err
	}
	if t.Discount, err = fromDecimal128(doc.Discount); err != nil {
		return t, err
	}
	if t.Total, err = fromDecimal128(doc.Total); err != nil {
		return t, err
	}
	for _, it := range doc.Items {
		item := TransactionItem{ProductID: it.ProductID, ProductName: it.ProductName, Quantity: it.Quantity}
		if item.UnitPrice, err = fromDecimal128(it.UnitPrice); err != nil {
			return t, err
		}
		if item.LineTotal, err = fromDecimal128(it.LineTotal); err != nil {
			return t, err
		}
		t.Items = append(t.Items, item)
	}
	return t, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode amount %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode amount %s: %w", v, err)
	}
	return d, nil
}
