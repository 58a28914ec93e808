package model

// Bucket is the calculation group a loan type belongs to. Numbered buckets
// run the full pricing path; Asset and Special are carried separately, and
// NonPerforming reclassifies a performing loan into the NPL stream.
type Bucket string

const (
	Bucket1             Bucket = "1"
	Bucket2             Bucket = "2"
	Bucket3             Bucket = "3"
	Bucket4             Bucket = "4"
	BucketAsset         Bucket = "Asset"
	BucketSpecial       Bucket = "Special"
	BucketNonPerforming Bucket = "non-performing"
	BucketNotFound      Bucket = "Not Found"
)

// Numbered reports whether the bucket is one of the four priced groups.
func (b Bucket) Numbered() bool {
	switch b {
	case Bucket1, Bucket2, Bucket3, Bucket4:
		return true
	}
	return false
}

// NumberedBuckets in ascending order.
var NumberedBuckets = []Bucket{Bucket1, Bucket2, Bucket3, Bucket4}

/*
Two bucket tables exist and they disagree. SegmentationBuckets drives the
performing-loan split; EnrichmentBuckets drives which rates/fees table prices
a loan type. The divergence is historical and must be kept: Overdraft,
Credit Card and Current Account segment as Special but are priced in buckets
3, 4 and 3, and the bank-guarantee types exist only on the segmentation side.
Keep the two tables separate; do not merge them.
*/

// SegmentationBuckets maps loan type to bucket for the segmentation stage.
var SegmentationBuckets = map[string]Bucket{
	TypeMediumLongTerm:       Bucket1,
	TypeRELeasing:            Bucket1,
	TypeOverdraft:            BucketSpecial,
	TypeSyndicated:           Bucket1,
	TypeFactoring:            Bucket1,
	TypeResidentialMortgage:  Bucket1,
	TypeCreditCard:           BucketSpecial,
	TypeCorporateDevelopment: Bucket1,
	TypeCurrentAccount:       BucketSpecial,
	TypeNonRELeasing:         Bucket1,
	TypeDiscountedBill:       Bucket2,
	TypeConsumer:             Bucket1,
	TypeOther:                Bucket1,
	TypeTradeFinance:         Bucket1,
	TypeRestructured:         Bucket1,
	TypeUncalledGuarantee:    BucketAsset,
	TypeCalledGuarantee:      BucketNonPerforming,
}

// EnrichmentBuckets maps loan type to the bucket whose rates/fees table
// prices it during enrichment.
var EnrichmentBuckets = map[string]Bucket{
	TypeMediumLongTerm:       Bucket1,
	TypeRELeasing:            Bucket1,
	TypeOverdraft:            Bucket3,
	TypeSyndicated:           Bucket1,
	TypeFactoring:            Bucket1,
	TypeResidentialMortgage:  Bucket1,
	TypeCreditCard:           Bucket4,
	TypeCorporateDevelopment: Bucket1,
	TypeCurrentAccount:       Bucket3,
	TypeNonRELeasing:         Bucket1,
	TypeDiscountedBill:       Bucket2,
	TypeConsumer:             Bucket1,
	TypeOther:                Bucket1,
	TypeTradeFinance:         Bucket1,
	TypeRestructured:         Bucket1,
}

// SegmentationBucket looks up the segmentation-stage bucket for a loan type.
func SegmentationBucket(loanType string) Bucket {
	if b, ok := SegmentationBuckets[loanType]; ok {
		return b
	}
	return BucketNotFound
}

// EnrichmentBucket looks up the pricing bucket for a loan type.
func EnrichmentBucket(loanType string) Bucket {
	if b, ok := EnrichmentBuckets[loanType]; ok {
		return b
	}
	return BucketNotFound
}
