package solana

import (
	binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
)

var (
	ataCreateTypeID    = binary.NoTypeIDDefaultID
	closeAccountTypeID = binary.TypeIDFromUint8(token.Instruction_CloseAccount)
)

// MergeInstructions collapses duplicates that appear when several builders
// are composed into one transaction: repeated create-ATA instructions for the
// same wallet/mint and repeated close-account instructions for the same
// account. Relative order of everything else is preserved.
func MergeInstructions(oldInstructions []solana.Instruction) []solana.Instruction {
	var (
		ataCreates    []*associatedtokenaccount.Create
		closeAccounts []*token.CloseAccount

		newInstructions []solana.Instruction
	)

	for _, v := range oldInstructions {
		switch inst := v.(type) {
		case *associatedtokenaccount.Instruction:
			if inst.TypeID != ataCreateTypeID {
				newInstructions = append(newInstructions, v)
				break
			}
			create, ok := inst.Impl.(associatedtokenaccount.Create)
			if !ok {
				newInstructions = append(newInstructions, v)
				break
			}
			dup := false
			for _, seen := range ataCreates {
				if create.Mint == seen.Mint && create.Payer == seen.Payer && create.Wallet == seen.Wallet {
					dup = true
					break
				}
			}
			if !dup {
				ataCreates = append(ataCreates, &create)
				newInstructions = append(newInstructions, v)
			}
		case *token.Instruction:
			if inst.TypeID != closeAccountTypeID {
				newInstructions = append(newInstructions, v)
				break
			}
			closeAccount, ok := inst.Impl.(token.CloseAccount)
			if !ok {
				newInstructions = append(newInstructions, v)
				break
			}
			dup := false
			for _, seen := range closeAccounts {
				if closeAccount.GetAccount().PublicKey == seen.GetAccount().PublicKey &&
					closeAccount.GetDestinationAccount().PublicKey == seen.GetDestinationAccount().PublicKey &&
					closeAccount.GetOwnerAccount().PublicKey == seen.GetOwnerAccount().PublicKey {
					dup = true
					break
				}
			}
			if !dup {
				closeAccounts = append(closeAccounts, &closeAccount)
				newInstructions = append(newInstructions, v)
			}
		default:
			newInstructions = append(newInstructions, v)
		}
	}

	return newInstructions
}
