package test

import (
	"encoding/hex"
	"fmt"

	"github.com/cronokirby/saferith"
)

// safePrimes are 1024 bit safe primes, all ≡ 3 (mod 4).
// Generating them takes several seconds each, so tests draw from this fixed set instead.
var safePrimes = [...]string{
	"cd447e35b8b6d8fe442e3d437204e52db2221a58008a05a6c4647159c324c9859b810e766ec9d28663ca828dd5f4b3b2e4b06ce60741c7a87ce42c8218072e8c35bf992dc9e9c616612e7696a6cecc1b78e510617311d8a3c2ce6f447ed4d57b1e2feb89414c343c1027c4d1c386bbc4cd613e30d8f16adf91b7584a2267a0ab",
	"c2523e86feac7eb7dc38f519b91751dacdbd47d364be8049a372db8f6e405d93ffed9235288bc781ae66267594c9c9500925e4749b575bd13653f8dd9b1f282e4067c3584ee207f8da94e3e8ab73738fcf1822ffbc6887782b491044d5e341245c6e433715ba2bdd177219d30e7a269fd95bafc8f2a4d27bdcf4bb99f4c21fcf",
	"c45fad2a92d3043afcf249f3d4e441c3a20ab57c360c4979a7cf94d7b6bcb64f1aa4b64091b1078e926baeafe79a27e68ab12c32f6f22f41538e504edc52bdcab2d87d5e29c0e596b2109307abd8952c9b16f809fdb17f5447997b6bdb3d115007564931edcf6109ea6d5547ae96619356363b4be779c4703b7dae049596ef1f",
	"f2decd6b8efbc170a26a25c852175b7a96b98b5fbf37a2be6f98bca35b17b9662f0733c846bbe9e870ef55b1a1f65507a2909cb633e238b4e9dd38b869ace91311021c9e32111ac1ac7cc4a4ff4dab102522d53857c49391b36cc9aa78a330a1a5e333cb88dcf94384d4cd1f47ca7883ff5a52f1a05885ac7671863c0bdc0f5f",
	"d60d5a8f9a656aafd14125844d25deb354f46a6910acff0043892dfc254cb864ef901b932a7c18806a3753915c76f18a0585a01c4c7d6df0621aef57e4cc4132f7108e96f770c2263266aa3bb0cde917f7f35634f0e3cd972e81d66d346c6e2ba02fdaa1ad864c44e049548e8a0a8c9632ea6928f6236bf2504b74ba4a125677",
	"d81e290aae9af1698a0c510089ce5ef7e91b4ad169fc5360df5ca32ebad5ccc232b7228fcd4a55577d24b39645cf8aa4059a91e1c527e27951c342505f877031bc1e3ac1c27db4ecf72c2c26786295229623d7cfa9ae7a34254499c7001d9a88096d373742f9a039c320a4737c2b3abe14a03569d26b949692e5dfe8cb1ba177",
	"e170b33839263059f28c105d1fb17c2390c192cfd3ac94af0f21ddb66cad4a268d116ece1738f7d93d9c172411e20b8f6b0d549b6f03675a1600a35a099950d836f675cc81e74ef5e8e25d940ed904759531985d5d9dc9f81818e811892f902bd23f0824128b2f330c5c7fd0a6a3a4506513270e269e0d37f2a74de452ec6fbb",
	"c24f6aa83bf36a147c2f7ad016edc5d467164890d49d0ac1e5b8063831360a4092b850ad7eb72f8263f65da874007cb47cc661e97589ca4a07c15471a4517d6c6694f229359b154881a0d5b3ffc6e35ccfaf00103f584ad4230824d215ceb3a10b3510b0b46ee1da317017a6205738d16018366cf658f7a75ed34fe53a0eeabb",
	"da298adee5329b4e329a86139425b3e2c3ad4d991f0916cb00fded6598cae043f6c986f21caf107ad9c98c23e80a86cfbc79ce036cbaccf13c9a8df50602fe0c239edd3a7de0d208d886c5d060fa1c95e553fb510e06acd4694398c5e11e99fb01597ac1e2eb17c8b573f6c5331155190b0ecf26cf3c17e55777039e47fec2b7",
	"ec9cce6f889263ce1270dee2a86b8a6e9b4f32afd167533a4d1919a07f21682208208d090973e89c3d06143769b1dcbff843bdb8396ba83ad798c9cf280b11fd807da245d814d575531ec56c95a4d257a7298c6610a37558785036de6f9fb997735c076b8c8a18b2aaac3142507a25603d7c95f9e5f0307ec5a56d7e5dbf3033",
	"d86e86cb0ab8ab67a26b7f62b1852f27e3eff9c0cf44dd3f89e7d15f17362f25244caf9c4dabb4817253edc6181879932fa91425cb0088539d2c67eda13ffe7979cb9e86830c71c2cdcc69292f45e678309d6b79965eda32dae445508201e2bd73ab48767734d7c1c7fde805ec99108ddb5b5fab8f4d3e27dda1494c73d081fb",
	"f8a885186c5744bca92e6b951cce9c7771992790f25bc8cf6c7ec515fcb4d02bfd4cb8b3174a554f3926847b8248f803a97bcc25ea3fa51cd1d4d2b30f8f95efeb3d787304c3405b165c982bd7a7bf5ecc419a5e6794cd2eae729aff56459afed1ba5c0fafdba91d8376099813199de0331b2fb3d19e32249382cc710f13e043",
}

// MaxFixedPrimePairs is the number of distinct Paillier key pairs that can be built from the fixture primes.
const MaxFixedPrimePairs = len(safePrimes) / 2

// SafePrimePair returns the i-th pair of fixed safe primes, suitable for a Paillier key.
func SafePrimePair(i int) (p, q *saferith.Nat) {
	if i < 0 || i >= MaxFixedPrimePairs {
		panic(fmt.Sprintf("test: no fixed prime pair %d", i))
	}
	return natFromHex(safePrimes[2*i]), natFromHex(safePrimes[2*i+1])
}

func natFromHex(s string) *saferith.Nat {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return new(saferith.Nat).SetBytes(b)
}
