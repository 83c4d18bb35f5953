package prompt

import "storyweave/internal/models"

// Заранее написанные истории на случай, когда модель недоступна.
var fallbackStories = map[models.ProfileType]string{
	models.ProfileADHD: `Max found a rocket. It was red and shiny. He jumped inside quickly.

The rocket started to glow. "Wow!" said Max. He pressed a big button.

Up, up, up! The rocket flew into space. Stars zoomed past the window.

Max counted the stars. One, two, three! A friendly alien waved hello.

They played a quick game. Max won a golden star! He held it tight.

Time to go home. The rocket flew back down. Down, down, down to Earth.

Max landed in his cozy bed. He hugged his golden star close.

"What an adventure," Max whispered. His eyes felt heavy now.

Sweet dreams, Max. Sleep tight. The end.`,

	models.ProfileAutism: `First, Luna put on her space helmet. It was blue, just like always.
Then, she checked her space backpack. Everything was in the right place.

First, Luna walked to her rocket. She counted her steps. One, two, three, four, five.
Then, she climbed inside. She sat in the same seat as always because it felt safe.

First, the rocket counted down. Five, four, three, two, one.
Then, the rocket flew up into space. Luna knew this would happen because rockets always fly up.

In space, Luna saw the same stars she sees every night. This made her feel calm.
She waved to the moon. The moon was round and bright, just like last time.

Finally, Luna flew home. She landed in her bed.
She said, "Goodnight, stars. Goodnight, moon. Goodnight, space."
Luna closed her eyes. Everything was the same and safe. The end.`,

	models.ProfileAnxiety: `In a cozy little garden, everything was peaceful and safe.
The flowers swayed gently in the soft breeze. Everything was calm.

A small bunny named Willow lived in the garden. Willow was always safe and loved.
Willow took a slow, deep breath and smelled the sweet flowers. Everything felt warm and good.

Willow's friends came to visit. They sat together on the soft grass.
They watched the clouds float by, slowly and gently. Everything moved at a peaceful pace.

"We are safe here together," said Willow softly. The friends agreed.
They all took a deep breath together. In... and out... Everything was calm.

The sun began to set, painting the sky in gentle colors.
Willow snuggled into the warm, soft grass. "I am safe. I am loved. All is well."

The stars came out one by one, like friends saying goodnight.
Willow closed her eyes, feeling warm and peaceful. Everything was safe.
Sweet dreams, Willow. You are loved. The end.`,

	models.ProfileGeneral: `Once upon a time, a little fox named Pip lived at the edge of a quiet wood.

Every evening, Pip liked to visit the old oak tree. The oak had a hollow full of soft moss.

One night, Pip found a tiny lantern glowing in the moss. "Hello," said a sleepy firefly. "I lost my way home."

Pip smiled. "I know every path in this wood. Let's find your home together."

They walked past the whispering ferns and over the little wooden bridge. The stream sang a gentle song.

At the top of the hill, they saw a meadow full of blinking lights. "My family!" cried the firefly happily.

The fireflies danced a thank-you dance just for Pip. The whole meadow sparkled like the sky.

Pip walked home slowly, with a warm and happy heart. The moon watched over every step.

Back in the cozy den, Pip curled up into a soft, round ball. Sweet dreams, little Pip. The end.`,
}

// FallbackStory возвращает запасную историю для профиля. Для неизвестного профиля - историю ADHD.
func FallbackStory(profile models.ProfileType) string {
	if story, ok := fallbackStories[profile]; ok {
		return story
	}
	return fallbackStories[models.ProfileADHD]
}
