package proto

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/tonclub/hypersonic/pkg/errs"
)

const (
	MaxPackageLevel = 7
	// UplineDepth is the maximum number of ancestors kept in a member's upline.
	UplineDepth = 7
	// CompanySlot is the payout slot that collects the company's share.
	CompanySlot = 8
)

// PackageLevel is the purchased tier of a member, 0 means no package.
type PackageLevel uint8

func NewPackageLevel(v int) (PackageLevel, error) {
	if v < 0 || v > MaxPackageLevel {
		return 0, errs.NewInvalidLevel(fmt.Sprintf("package level %d is out of range [0, %d]", v, MaxPackageLevel))
	}
	return PackageLevel(v), nil
}

func (l PackageLevel) Valid() bool {
	return l <= MaxPackageLevel
}

// PackageTable holds package prices and payout percentages indexed from level 1 and ancestor position 1.
type PackageTable struct {
	Prices      [MaxPackageLevel]Amount
	Percentages [UplineDepth]uint64
}

func DefaultPackageTable() PackageTable {
	return PackageTable{
		Prices: [MaxPackageLevel]Amount{
			ToNano(3), ToNano(15), ToNano(60), ToNano(120), ToNano(240), ToNano(400), ToNano(600),
		},
		Percentages: [UplineDepth]uint64{10, 20, 20, 10, 10, 10, 10},
	}
}

func (t PackageTable) Price(level PackageLevel) (Amount, error) {
	if level == 0 || level > MaxPackageLevel {
		return 0, errs.NewInvalidLevel(fmt.Sprintf("no price for package level %d", level))
	}
	return t.Prices[level-1], nil
}

// Percentage returns the payout percentage for ancestor position 1..7.
func (t PackageTable) Percentage(position int) uint64 {
	return t.Percentages[position-1]
}

// UpgradePrice is the sum of prices of levels current+1..target.
func (t PackageTable) UpgradePrice(current, target PackageLevel) (Amount, error) {
	if target <= current || target > MaxPackageLevel {
		return 0, errs.NewInvalidLevel(fmt.Sprintf("can't upgrade from level %d to %d", current, target))
	}
	var total Amount
	for l := current + 1; l <= target; l++ {
		p, err := t.Price(l)
		if err != nil {
			return 0, err
		}
		if total, err = total.Add(p); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func (t PackageTable) Validate() error {
	var sum uint64
	for i, p := range t.Percentages {
		if p > 100 {
			return errors.Errorf("payout percentage at position %d is above 100", i+1)
		}
		sum += p
	}
	if sum > 100 {
		return errors.Errorf("payout percentages sum up to %d", sum)
	}
	for i, p := range t.Prices {
		if p == 0 {
			return errors.Errorf("zero price for package level %d", i+1)
		}
	}
	return nil
}
