package merkletesting

// SHA256LetterRoots[n-1] is the root of the unsorted sha256 tree over the
// first n Letters.
var SHA256LetterRoots = []string{
	"ca978112ca1bbdcafac231b39a23dc4da786eff8147c4e72b9807785afee48bb",
	"e5a01fee14e0ed5c48714f22180f25ad8365b53f9779f79dc4a3d7e93963f94a",
	"7075152d03a5cd92104887b476862778ec0c87be5c2fa1c0a90f87c49fad6eff",
	"14ede5e8e97ad9372327728f5099b95604a39593cac3bd38a343ad76205213e7",
	"d71f8983ad4ee170f8129f1ebcdd7440be7798d8e1c80420bf11f1eced610dba",
	"1f7379539707bcaea00564168d1d4d626b09b73f8a2a365234c62d763f854da2",
	"e2a80e0e872a6c6eaed37b4c1f220e1935004805585b5f99617e48e9c8fe4034",
	"bd7c8a900be9b67ba7df5c78a652a8474aedd78adb5083e80e49d9479138a23f",
	"09b6890b23e32e607f0e5f670ab224e36af8f6599cbe88b468f4b0f761802dd6",
	"acd9c757c94bde41f98946fe6f5ce5ae567b0f103bd9eeb37421c760c592db1e",
	"5232b16d412d5902d87a153a3551a22094a634c67695d7f9e215be48b15aa9a3",
	"f64bc461b545975dfe84768c7ebd1d09c536b680819239cb78469b5d3bb182d8",
	"a848a99df01e9c1b938403a30226e770f88d37c4d43e8347356ed6887f7b30a3",
	"4e4afdcec057392d1a735b39f41d4f3ef1cab5637c91f5443996079b3c763538",
	"a2e073232cb6285fa5f04957dfe6a3238a9dce003908932231174884e5861767",
}

// Known answers for trees over the first six Letters, for the proof of
// positions {3, 4}, and for the roots after committing "g" and then "h", "k".
type LetterVectors struct {
	Algorithm   string
	SortedPairs bool
	Root        string
	ProofHashes []string
	ProofBytes  []byte
	RootAfterG  string
	RootAfterHK string
}

var SHA256Vectors = LetterVectors{
	Algorithm: "sha256",
	Root:      "1f7379539707bcaea00564168d1d4d626b09b73f8a2a365234c62d763f854da2",
	ProofHashes: []string{
		"2e7d2c03a9507ae265ecf5b5356885a53393a2029d241394997265a1a25aefc6",
		"252f10c83610ebca1a059c0bae8255eba2f95be4d1d7bcfa89d7248a82d9f111",
		"e5a01fee14e0ed5c48714f22180f25ad8365b53f9779f79dc4a3d7e93963f94a",
	},
	ProofBytes: []byte{
		46, 125, 44, 3, 169, 80, 122, 226, 101, 236, 245, 181, 53, 104, 133, 165, 51, 147, 162,
		2, 157, 36, 19, 148, 153, 114, 101, 161, 162, 90, 239, 198, 37, 47, 16, 200, 54, 16,
		235, 202, 26, 5, 156, 11, 174, 130, 85, 235, 162, 249, 91, 228, 209, 215, 188, 250,
		137, 215, 36, 138, 130, 217, 241, 17, 229, 160, 31, 238, 20, 224, 237, 92, 72, 113, 79,
		34, 24, 15, 37, 173, 131, 101, 181, 63, 151, 121, 247, 157, 196, 163, 215, 233, 57, 99,
		249, 74,
	},
	RootAfterG:  "e2a80e0e872a6c6eaed37b4c1f220e1935004805585b5f99617e48e9c8fe4034",
	RootAfterHK: "09b6890b23e32e607f0e5f670ab224e36af8f6599cbe88b468f4b0f761802dd6",
}

var Keccak256SortedVectors = LetterVectors{
	Algorithm:   "keccak256",
	SortedPairs: true,
	Root:        "9012f1e18a87790d2e01faace75aaaca38e53df437cdce2c0552464dda4af49c",
	ProofHashes: []string{
		"0b42b6393c1f53060fe3ddbfcd7aadcca894465a5a438f69c87d790b2299b9b2",
		"d1e8aeb79500496ef3dc2e57ba746a8315d048b7a664a2bf948db4fa91960483",
		"805b21d846b189efaeb0377d6bb0d201b3872a363e607c25088f025b0c6ae1f8",
	},
	ProofBytes: []byte{
		11, 66, 182, 57, 60, 31, 83, 6, 15, 227, 221, 191, 205, 122, 173, 204, 168, 148, 70,
		90, 90, 67, 143, 105, 200, 125, 121, 11, 34, 153, 185, 178, 209, 232, 174, 183, 149,
		0, 73, 110, 243, 220, 46, 87, 186, 116, 106, 131, 21, 208, 72, 183, 166, 100, 162,
		191, 148, 141, 180, 250, 145, 150, 4, 131, 128, 91, 33, 216, 70, 177, 137, 239, 174,
		176, 55, 125, 107, 176, 210, 1, 179, 135, 42, 54, 62, 96, 124, 37, 8, 143, 2, 91, 12,
		106, 225, 248,
	},
	RootAfterG:  "329bcb82b465308e4d3445408c794db388e401855b1fe6f2981c93ca34ce516b",
	RootAfterHK: "795ea4413965030bfef44c5a852162e0cc357b050813f0f9140e812b9c41c245",
}
