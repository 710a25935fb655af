package knowledge

// SeedDocument is one built-in regulation text loaded into an empty store.
type SeedDocument struct {
	Source string
	Text   string
}

// SeedCorpus returns the regulation texts used to populate a new store.
func SeedCorpus() []SeedDocument {
	return []SeedDocument{
		{Source: "ftc_guidelines", Text: ftcGuidelines},
		{Source: "social_media_rules", Text: socialMediaRules},
		{Source: "misleading_tactics", Text: misleadingTactics},
	}
}

const ftcGuidelines = `The Federal Trade Commission (FTC) enforces truth-in-advertising laws. These laws require:
1. Advertisements must be truthful and non-deceptive
2. Advertisers must have evidence to back up their claims
3. Advertisements cannot be unfair

An ad is deceptive if it contains a statement or omits information that is likely to mislead consumers
and is material to consumers' decision to buy or use the product.

An ad is unfair if it causes or is likely to cause substantial consumer injury that consumers could not
reasonably avoid and that is not outweighed by the benefit to consumers or competition.

Endorsements and testimonials must reflect the honest opinions, findings, beliefs, or experience of the endorser.
Endorsers must disclose any material connections between themselves and the advertiser.
`

const socialMediaRules = `Social media advertising rules:
1. Clearly disclose when content is sponsored or paid
2. Use hashtags like #ad or #sponsored for sponsored content
3. Influencers must disclose material connections to brands
4. Claims about products must be truthful and substantiated
5. Health and medical claims require scientific evidence
6. Disclosures should be clear, conspicuous, and easily noticed
7. Contests and promotions must clearly state rules and requirements
`

const misleadingTactics = `Common misleading advertising tactics:
1. False claims: Making untrue statements about products
2. Bait and switch: Advertising one product but substituting another
3. Hidden fees: Not disclosing all costs upfront
4. Misleading visuals: Showing unrealistic product results
5. Ambiguous or unclear language: Using terms like "natural" without clear meaning
6. False urgency: Creating fake time pressure like "limited time offer"
7. Fake testimonials: Using paid actors without disclosure
8. Misleading comparisons: Comparing to inferior products without context
9. Incomplete information: Omitting key details affecting purchasing decisions
10. Predatory targeting: Targeting vulnerable populations with misleading claims
`
